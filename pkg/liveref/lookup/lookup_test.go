package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/cognicore/liveref/pkg/liveref/internalerr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubWiki struct {
	calls   atomic.Int32
	missing map[string]bool
	fail    map[string]bool
	delay   time.Duration
}

func (w *stubWiki) Summary(ctx context.Context, term string) (Article, error) {
	w.calls.Add(1)
	if w.delay > 0 {
		select {
		case <-time.After(w.delay):
		case <-ctx.Done():
			return Article{}, ctx.Err()
		}
	}
	if w.missing[term] {
		return Article{}, fmt.Errorf("wikipedia %q: %w", term, internalerr.ErrNotFound)
	}
	if w.fail[term] {
		return Article{}, errors.New("connection reset")
	}
	return Article{
		Title:   term + " (article)",
		Extract: "About " + term,
		URL:     "https://ja.wikipedia.org/wiki/" + term,
		Lang:    "ja",
	}, nil
}

type stubLLM struct {
	calls atomic.Int32
	err   error
	mu    sync.Mutex
	seen  []string
}

func (l *stubLLM) Explain(ctx context.Context, term, passage string) (string, error) {
	l.calls.Add(1)
	l.mu.Lock()
	l.seen = append(l.seen, passage)
	l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	return "  " + term + " explained  ", nil
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":          ModeAuto,
		"AUTO":      ModeAuto,
		"Wikipedia": ModeWikipedia,
		"llm":       ModeLLM,
		"both ":     ModeBoth,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("google"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("unknown mode should be ErrInvalidConfig, got %v", err)
	}
}

func TestNewRequiresKeyForLLMMode(t *testing.T) {
	_, err := New(&stubWiki{}, nil, Options{Mode: ModeLLM})
	if !errors.Is(err, internalerr.ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestAutoFallsBackWithoutKey(t *testing.T) {
	wiki := &stubWiki{}
	svc, err := New(wiki, nil, Options{Mode: ModeAuto})
	if err != nil {
		t.Fatal(err)
	}

	r := svc.Lookup(context.Background(), "機械学習", "")
	if !r.Found || r.Source != SourceWikipedia {
		t.Fatalf("expected wikipedia result, got %+v", r)
	}
	if r.Title != "機械学習 (article)" || r.Lang != "ja" {
		t.Errorf("unexpected article fields %+v", r)
	}
}

func TestAutoUsesLLMWithKey(t *testing.T) {
	wiki := &stubWiki{}
	llm := &stubLLM{}
	svc, _ := New(wiki, llm, Options{Mode: ModeAuto})

	r := svc.Lookup(context.Background(), "React", "React でUIを作る")
	if !r.Found || r.Source != SourceLLM {
		t.Fatalf("expected llm result, got %+v", r)
	}
	if r.Explanation != "React explained" {
		t.Errorf("explanation should be trimmed, got %q", r.Explanation)
	}
	if wiki.calls.Load() != 0 {
		t.Error("wikipedia should not be called when the llm succeeds")
	}
	if llm.seen[0] != "React でUIを作る" {
		t.Errorf("passage not forwarded: %q", llm.seen[0])
	}
}

func TestLLMFailureFallsBack(t *testing.T) {
	wiki := &stubWiki{}
	llm := &stubLLM{err: errors.New("rate limited")}

	for _, mode := range []Mode{ModeAuto, ModeLLM} {
		svc, err := New(wiki, llm, Options{Mode: mode})
		if err != nil {
			t.Fatal(err)
		}
		r := svc.Lookup(context.Background(), "Python", "")
		if !r.Found || r.Source != SourceWikipedia {
			t.Errorf("mode %s: expected wikipedia fallback, got %+v", mode, r)
		}
	}
}

func TestWikipediaModeNeverCallsLLM(t *testing.T) {
	llm := &stubLLM{}
	svc, _ := New(&stubWiki{}, llm, Options{Mode: ModeWikipedia})

	svc.Lookup(context.Background(), "Go", "")
	if llm.calls.Load() != 0 {
		t.Error("llm must not be called in wikipedia mode")
	}
}

func TestBothModeMerges(t *testing.T) {
	wiki := &stubWiki{missing: map[string]bool{"Zig": true}}
	svc, _ := New(wiki, &stubLLM{}, Options{Mode: ModeBoth})

	r := svc.Lookup(context.Background(), "Rust", "")
	if r.Source != SourceBoth || r.Summary != "About Rust" || r.Explanation != "Rust explained" {
		t.Errorf("unexpected merged result %+v", r)
	}

	r = svc.Lookup(context.Background(), "Zig", "")
	if r.Source != SourceLLM || !r.Found {
		t.Errorf("missing article should leave the llm result, got %+v", r)
	}

	noKey, _ := New(wiki, nil, Options{Mode: ModeBoth})
	r = noKey.Lookup(context.Background(), "Rust", "")
	if r.Source != SourceWikipedia || r.Explanation != "" {
		t.Errorf("without a key both mode is wikipedia only, got %+v", r)
	}
}

func TestNotFoundAndErrors(t *testing.T) {
	wiki := &stubWiki{
		missing: map[string]bool{"qwzx": true},
		fail:    map[string]bool{"flaky": true},
	}
	svc, _ := New(wiki, nil, Options{Mode: ModeWikipedia})

	r := svc.Lookup(context.Background(), "qwzx", "")
	if r.Found || !errors.Is(r.Err, internalerr.ErrNotFound) {
		t.Errorf("expected not found, got %+v", r)
	}

	r = svc.Lookup(context.Background(), "flaky", "")
	if r.Found || r.Err == nil {
		t.Errorf("expected error result, got %+v", r)
	}

	none, _ := New(nil, nil, Options{})
	r = none.Lookup(context.Background(), "anything", "")
	if r.Found || r.Source != SourceNone {
		t.Errorf("no backends should yield an empty result, got %+v", r)
	}
}

func TestCache(t *testing.T) {
	wiki := &stubWiki{missing: map[string]bool{"nope": true}}
	svc, _ := New(wiki, nil, Options{Mode: ModeWikipedia, CacheSize: 8})
	ctx := context.Background()

	first := svc.Lookup(ctx, "Kubernetes", "")
	second := svc.Lookup(ctx, "kubernetes", "")
	if first.Cached || !second.Cached {
		t.Errorf("second lookup should be served from cache: %+v / %+v", first, second)
	}
	if wiki.calls.Load() != 1 {
		t.Errorf("expected one upstream call, got %d", wiki.calls.Load())
	}
	if first.Keyword != "Kubernetes" || second.Keyword != "kubernetes" {
		t.Errorf("cached result should carry the requested spelling: %q / %q", first.Keyword, second.Keyword)
	}

	svc.Lookup(ctx, "nope", "")
	svc.Lookup(ctx, "nope", "")
	if wiki.calls.Load() != 3 {
		t.Errorf("misses must not be cached, upstream calls = %d", wiki.calls.Load())
	}
}

func TestCacheKeysExplanationsByPassage(t *testing.T) {
	llm := &stubLLM{}
	svc, _ := New(&stubWiki{}, llm, Options{Mode: ModeAuto, CacheSize: 8})
	ctx := context.Background()

	a := svc.Lookup(ctx, "React", "React renders the dashboard")
	b := svc.Lookup(ctx, "React", "We react to incidents within an hour")
	if llm.calls.Load() != 2 {
		t.Fatalf("different passages should each reach the LLM, calls = %d", llm.calls.Load())
	}
	if a.Cached || b.Cached {
		t.Errorf("neither lookup should be cached: %+v / %+v", a, b)
	}

	again := svc.Lookup(ctx, "react", "React renders the dashboard")
	if !again.Cached || llm.calls.Load() != 2 {
		t.Errorf("same passage should be served from cache, calls = %d, cached = %v", llm.calls.Load(), again.Cached)
	}
	if again.Keyword != "react" {
		t.Errorf("keyword = %q, want the requested spelling", again.Keyword)
	}
}

func TestLookupAllSettlesIndependently(t *testing.T) {
	wiki := &stubWiki{
		fail:  map[string]bool{"bad": true},
		delay: 20 * time.Millisecond,
	}
	svc, _ := New(wiki, nil, Options{Mode: ModeWikipedia, MaxConcurrency: 2})

	keywords := []string{"a1", "bad", "c3", "d4"}
	results := svc.LookupAll(context.Background(), keywords, "")

	if len(results) != len(keywords) {
		t.Fatalf("expected %d results, got %d", len(keywords), len(results))
	}
	for i, r := range results {
		if r.Keyword != keywords[i] {
			t.Errorf("result %d is for %q, want %q", i, r.Keyword, keywords[i])
		}
	}
	if results[1].Found || results[1].Err == nil {
		t.Error("failed lookup should settle with an error")
	}
	for _, i := range []int{0, 2, 3} {
		if !results[i].Found {
			t.Errorf("lookup %q should succeed despite the failure of another", keywords[i])
		}
	}
}

func TestLookupAllCancelled(t *testing.T) {
	wiki := &stubWiki{delay: time.Second}
	svc, _ := New(wiki, nil, Options{Mode: ModeWikipedia})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	results := svc.LookupAll(ctx, []string{"x1", "x2", "x3"}, "")
	for _, r := range results {
		if r.Found || !errors.Is(r.Err, context.DeadlineExceeded) {
			t.Errorf("expected deadline error, got %+v", r)
		}
	}
}
