// Package liveref turns free text into reference cards: it extracts the
// salient keywords, looks each one up and keeps a history of searches.
package liveref

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/cognicore/liveref/internal/metrics"
	"github.com/cognicore/liveref/pkg/liveref/cards"
	"github.com/cognicore/liveref/pkg/liveref/extract"
	"github.com/cognicore/liveref/pkg/liveref/history"
	"github.com/cognicore/liveref/pkg/liveref/history/memstore"
	"github.com/cognicore/liveref/pkg/liveref/internalerr"
	"github.com/cognicore/liveref/pkg/liveref/lookup"
)

const (
	snippetRunes = 80   // history snippet length
	passageRunes = 2000 // context handed to the LLM
)

// Engine is the main live-reference facade
type Engine struct {
	extractor *extract.Extractor
	lookups   *lookup.Service
	history   history.Store
	cards     *cards.Builder
	log       *log.Logger

	searches atomic.Int64
}

// Options configures an Engine
type Options struct {
	Extractor *extract.Extractor // nil means extract.New with defaults
	Lookup    *lookup.Service    // required
	History   history.Store      // nil means an in-memory store
	Logger    *log.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Lookup == nil {
		return nil, fmt.Errorf("%w: lookup service required", internalerr.ErrInvalidConfig)
	}
	e := &Engine{
		extractor: opts.Extractor,
		lookups:   opts.Lookup,
		history:   opts.History,
		cards:     cards.New(),
		log:       opts.Logger,
	}
	if e.extractor == nil {
		e.extractor = extract.New(extract.DefaultOptions(), nil, nil)
	}
	if e.history == nil {
		e.history = memstore.New(history.DefaultMaxEntries)
	}
	if e.log == nil {
		e.log = log.Default()
	}
	return e, nil
}

// Close cleanly shuts down the engine
func (e *Engine) Close() error {
	return e.history.Close()
}

// Extract returns the keywords of text without looking them up
func (e *Engine) Extract(text string) []extract.Keyword {
	kws := e.extractor.Extract(text)
	metrics.RecordExtraction(len(kws))
	return kws
}

// AnalyzeRequest is one batch of input text
type AnalyzeRequest struct {
	Text string
	// SkipHistory leaves the history list untouched
	SkipHistory bool
}

// Report is the outcome of one Analyze call
type Report struct {
	Keywords  []extract.Keyword `json:"keywords"`
	Cards     []cards.Card      `json:"cards"`
	Found     int               `json:"found"`
	HistoryID string            `json:"history_id,omitempty"`
	Elapsed   time.Duration     `json:"elapsed"`
}

// Analyze extracts keywords from the request text, looks them all up in
// parallel and records the search. Text without keywords yields an empty
// report; blank text is ErrInvalidInput.
func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (Report, error) {
	start := time.Now()
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Report{}, fmt.Errorf("%w: empty text", internalerr.ErrInvalidInput)
	}

	kws := e.Extract(text)
	if len(kws) == 0 {
		e.log.Debug("no keywords", "runes", utf8.RuneCountInString(text))
		return Report{Keywords: []extract.Keyword{}, Cards: []cards.Card{}, Elapsed: time.Since(start)}, nil
	}

	results := e.lookups.LookupAll(ctx, extract.Texts(kws), truncate(text, passageRunes))

	report := Report{
		Keywords: kws,
		Cards:    make([]cards.Card, len(kws)),
	}
	for i, kw := range kws {
		report.Cards[i] = e.cards.Build(kw, results[i])
		if results[i].Found {
			report.Found++
		}
	}
	e.searches.Add(1)

	if !req.SkipHistory {
		entry := history.Entry{
			ID:        e.cards.NewID(),
			Keywords:  extract.Texts(kws),
			Snippet:   truncate(text, snippetRunes),
			Results:   report.Found,
			CreatedAt: time.Now(),
		}
		if err := e.history.Add(ctx, entry); err != nil {
			// A failed history write does not void the lookups
			e.log.Warn("history write failed", "err", err)
		} else {
			report.HistoryID = entry.ID
		}
	}

	report.Elapsed = time.Since(start)
	e.log.Info("analyzed", "keywords", len(kws), "found", report.Found, "elapsed", report.Elapsed)
	return report, nil
}

// LookupKeyword looks up a single keyword chosen by the user. It is not
// counted as a search and leaves the history untouched.
func (e *Engine) LookupKeyword(ctx context.Context, keyword string) (cards.Card, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return cards.Card{}, fmt.Errorf("%w: empty keyword", internalerr.ErrInvalidInput)
	}
	res := e.lookups.Lookup(ctx, keyword, "")
	return e.cards.BuildResult(res), nil
}

// History returns up to limit past searches, newest first
func (e *Engine) History(ctx context.Context, limit int) ([]history.Entry, error) {
	return e.history.Recent(ctx, limit)
}

// ImportHistory adds entries given newest first, as History and the JSONL
// export list them. IDs are kept, so importing twice adds nothing new.
func (e *Engine) ImportHistory(ctx context.Context, entries []history.Entry) (int, error) {
	n := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if err := e.history.Add(ctx, entries[i]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ClearHistory removes every history entry
func (e *Engine) ClearHistory(ctx context.Context) error {
	return e.history.Clear(ctx)
}

// SearchCount returns the number of Analyze calls that ran lookups
func (e *Engine) SearchCount() int64 {
	return e.searches.Load()
}

// Mode returns the lookup mode in effect
func (e *Engine) Mode() lookup.Mode {
	return e.lookups.Mode()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
