package cards

import (
	"errors"
	"sync"
	"testing"

	"github.com/cognicore/liveref/pkg/liveref/extract"
	"github.com/cognicore/liveref/pkg/liveref/lookup"
)

func TestBuildFromWikipedia(t *testing.T) {
	builder := New()
	kw := extract.Keyword{
		Text:     "機械学習",
		Category: "technology",
		Score:    4.0,
		Breakdown: extract.Breakdown{
			Intrinsic: 2.0, Frequency: 1.0, Position: 0.5, Independence: 0.5, Total: 4.0,
		},
	}
	res := lookup.Result{
		Keyword: "機械学習",
		Source:  lookup.SourceWikipedia,
		Title:   "機械学習",
		Summary: "機械学習とは…",
		URL:     "https://ja.wikipedia.org/wiki/機械学習",
		Lang:    "ja",
		Found:   true,
	}

	card := builder.Build(kw, res)

	if card.ID == "" {
		t.Error("card should have an ID")
	}
	if card.Body != "機械学習とは…" || card.Category != "technology" {
		t.Errorf("unexpected card %+v", card)
	}
	if card.ScoreBreakdown["total"] != 4.0 || card.ScoreBreakdown["position"] != 0.5 {
		t.Errorf("unexpected breakdown %v", card.ScoreBreakdown)
	}
}

func TestBuildBodies(t *testing.T) {
	tests := []struct {
		name string
		res  lookup.Result
		want string
	}{
		{
			name: "llm only",
			res:  lookup.Result{Keyword: "React", Explanation: "UI library", Found: true},
			want: "UI library",
		},
		{
			name: "both",
			res:  lookup.Result{Keyword: "React", Explanation: "UI library", Summary: "React is...", Found: true},
			want: "UI library\n\nReact is...",
		},
		{
			name: "not found",
			res:  lookup.Result{Keyword: "qwzx", Err: errors.New("missing")},
			want: NoResults,
		},
		{
			name: "found but empty",
			res:  lookup.Result{Keyword: "x", Found: true},
			want: NoResults,
		},
	}
	builder := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := builder.BuildResult(tt.res)
			if card.Body != tt.want {
				t.Errorf("body = %q, want %q", card.Body, tt.want)
			}
			if card.Title != tt.res.Keyword {
				t.Errorf("title should default to the keyword, got %q", card.Title)
			}
		})
	}
}

func TestBuildResultKeepsError(t *testing.T) {
	card := New().BuildResult(lookup.Result{Keyword: "k", Err: errors.New("timeout")})
	if card.Found || card.Error != "timeout" {
		t.Errorf("unexpected card %+v", card)
	}
	if card.ScoreBreakdown != nil {
		t.Error("direct lookups carry no score breakdown")
	}
}

func TestIDsUniqueAndOrdered(t *testing.T) {
	builder := New()

	const n = 200
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = builder.NewID()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}

	a, b := builder.NewID(), builder.NewID()
	if a >= b {
		t.Errorf("ids should be monotonic: %s then %s", a, b)
	}
}
