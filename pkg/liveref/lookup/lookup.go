// Package lookup resolves keywords against Wikipedia and an LLM.
//
// Lookups for different keywords run in parallel and settle independently;
// one failed lookup never cancels or hides the others.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/liveref/internal/metrics"
	"github.com/cognicore/liveref/pkg/liveref/internalerr"
)

// Mode selects which backends a lookup uses
type Mode string

const (
	ModeAuto      Mode = "auto"      // LLM when a valid key is configured, else Wikipedia
	ModeWikipedia Mode = "wikipedia" // never call the LLM
	ModeLLM       Mode = "llm"       // require the LLM, Wikipedia on failure
	ModeBoth      Mode = "both"      // both backends, merged
)

// ParseMode validates a mode string; empty means ModeAuto
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeWikipedia, ModeLLM, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown lookup mode %q", internalerr.ErrInvalidConfig, s)
	}
}

// Source names where a result came from
type Source string

const (
	SourceNone      Source = "none"
	SourceWikipedia Source = "wikipedia"
	SourceLLM       Source = "llm"
	SourceBoth      Source = "wikipedia+llm"
)

// Article is an encyclopedia summary
type Article struct {
	Title   string
	Extract string
	URL     string
	Lang    string
}

// Encyclopedia fetches article summaries
type Encyclopedia interface {
	Summary(ctx context.Context, term string) (Article, error)
}

// Explainer produces a short explanation of a term seen in a passage
type Explainer interface {
	Explain(ctx context.Context, term, passage string) (string, error)
}

// Result is the settled outcome of one keyword lookup
type Result struct {
	Keyword     string `json:"keyword"`
	Source      Source `json:"source"`
	Title       string `json:"title,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	URL         string `json:"url,omitempty"`
	Lang        string `json:"lang,omitempty"`
	Found       bool   `json:"found"`
	Cached      bool   `json:"cached,omitempty"`
	Err         error  `json:"-"`
}

// Options configures a Service
type Options struct {
	Mode           Mode
	CacheSize      int // <= 0 disables the cache
	MaxConcurrency int // parallel lookups in LookupAll; <= 0 means one per keyword
	Logger         *log.Logger
}

// Service runs lookups with the configured fallback policy
type Service struct {
	wiki        Encyclopedia
	llm         Explainer
	mode        Mode
	cache       *lru.Cache[string, Result]
	concurrency int
	log         *log.Logger
}

// New creates a lookup service. llm may be nil when no valid API key is
// configured; ModeLLM then fails with ErrNoAPIKey.
func New(wiki Encyclopedia, llm Explainer, opts Options) (*Service, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if mode == ModeLLM && llm == nil {
		return nil, fmt.Errorf("lookup mode %s: %w", mode, internalerr.ErrNoAPIKey)
	}

	s := &Service{
		wiki:        wiki,
		llm:         llm,
		mode:        mode,
		concurrency: opts.MaxConcurrency,
		log:         opts.Logger,
	}
	if s.log == nil {
		s.log = log.Default()
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("lookup cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Mode returns the effective lookup mode
func (s *Service) Mode() Mode {
	return s.mode
}

// Lookup resolves a single keyword. passage is the surrounding text handed
// to the LLM for context.
func (s *Service) Lookup(ctx context.Context, keyword, passage string) Result {
	key := s.cacheKey(keyword, passage)
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			r.Keyword = keyword
			r.Cached = true
			metrics.RecordLookup("cache", "found", 0)
			return r
		}
	}

	var r Result
	switch s.mode {
	case ModeWikipedia:
		r = s.fromWikipedia(ctx, keyword)
	case ModeBoth:
		r = s.fromBoth(ctx, keyword, passage)
	default:
		r = s.explainOrFallback(ctx, keyword, passage)
	}

	if r.Found && s.cache != nil {
		s.cache.Add(key, r)
	}
	return r
}

// cacheKey keys Wikipedia-only lookups by keyword alone. Whenever the LLM
// may answer, the explanation depends on the passage, so it joins the key.
func (s *Service) cacheKey(keyword, passage string) string {
	key := string(s.mode) + "\x00" + strings.ToLower(keyword)
	if s.llm == nil || s.mode == ModeWikipedia {
		return key
	}
	h := fnv.New64a()
	h.Write([]byte(passage))
	return key + "\x00" + strconv.FormatUint(h.Sum64(), 16)
}

// LookupAll resolves every keyword in parallel and returns results in
// keyword order. Every lookup settles: failures are reported in Result.Err.
func (s *Service) LookupAll(ctx context.Context, keywords []string, passage string) []Result {
	results := make([]Result, len(keywords))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, kw := range keywords {
		i, kw := i, kw
		g.Go(func() error {
			results[i] = s.Lookup(ctx, kw, passage)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) explainOrFallback(ctx context.Context, keyword, passage string) Result {
	if s.llm == nil {
		metrics.RecordFallback("no_key")
		return s.fromWikipedia(ctx, keyword)
	}

	r, err := s.fromLLM(ctx, keyword, passage)
	if err != nil {
		s.log.Warn("llm lookup failed, falling back to wikipedia", "keyword", keyword, "err", err)
		metrics.RecordFallback("llm_error")
		return s.fromWikipedia(ctx, keyword)
	}
	return r
}

func (s *Service) fromBoth(ctx context.Context, keyword, passage string) Result {
	var (
		wg     sync.WaitGroup
		wiki   Result
		llmRes Result
		llmErr error = internalerr.ErrNoAPIKey
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		wiki = s.fromWikipedia(ctx, keyword)
	}()
	if s.llm != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			llmRes, llmErr = s.fromLLM(ctx, keyword, passage)
		}()
	}
	wg.Wait()

	if llmErr != nil {
		return wiki
	}
	if !wiki.Found {
		return llmRes
	}
	wiki.Source = SourceBoth
	wiki.Explanation = llmRes.Explanation
	return wiki
}

func (s *Service) fromWikipedia(ctx context.Context, keyword string) Result {
	r := Result{Keyword: keyword, Source: SourceWikipedia}
	if s.wiki == nil {
		r.Source = SourceNone
		r.Err = internalerr.ErrNotFound
		return r
	}

	start := time.Now()
	art, err := s.wiki.Summary(ctx, keyword)
	elapsed := time.Since(start)
	if err != nil {
		status := "error"
		if errors.Is(err, internalerr.ErrNotFound) {
			status = "missing"
		} else {
			s.log.Warn("wikipedia lookup failed", "keyword", keyword, "err", err)
		}
		metrics.RecordLookup(string(SourceWikipedia), status, elapsed)
		r.Err = err
		return r
	}
	metrics.RecordLookup(string(SourceWikipedia), "found", elapsed)

	r.Title = art.Title
	if r.Title == "" {
		r.Title = keyword
	}
	r.Summary = art.Extract
	r.URL = art.URL
	r.Lang = art.Lang
	r.Found = true
	return r
}

func (s *Service) fromLLM(ctx context.Context, keyword, passage string) (Result, error) {
	start := time.Now()
	text, err := s.llm.Explain(ctx, keyword, passage)
	elapsed := time.Since(start)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("llm: empty explanation")
	}
	if err != nil {
		metrics.RecordLookup(string(SourceLLM), "error", elapsed)
		return Result{}, err
	}
	metrics.RecordLookup(string(SourceLLM), "found", elapsed)

	return Result{
		Keyword:     keyword,
		Source:      SourceLLM,
		Title:       keyword,
		Explanation: strings.TrimSpace(text),
		Found:       true,
	}, nil
}
