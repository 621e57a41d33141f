package cards

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/liveref/pkg/liveref/extract"
	"github.com/cognicore/liveref/pkg/liveref/lookup"
)

// NoResults is the card body when no backend found anything
const NoResults = "検索結果が見つかりませんでした"

// Builder constructs explainable result cards
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a new card builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Card is one entry of the rendered result list
type Card struct {
	ID             string             `json:"id"`
	Keyword        string             `json:"keyword"`
	Category       string             `json:"category,omitempty"`
	Source         lookup.Source      `json:"source"`
	Title          string             `json:"title"`
	Body           string             `json:"body"`
	URL            string             `json:"url,omitempty"`
	Lang           string             `json:"lang,omitempty"`
	Found          bool               `json:"found"`
	Cached         bool               `json:"cached,omitempty"`
	Error          string             `json:"error,omitempty"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
}

// NewID returns a fresh monotonic ULID
func (b *Builder) NewID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Now(), b.entropy).String()
}

// Build creates a card for an extracted keyword and its lookup result
func (b *Builder) Build(kw extract.Keyword, res lookup.Result) Card {
	card := b.BuildResult(res)
	card.Category = kw.Category
	card.ScoreBreakdown = kw.Breakdown.Map()
	card.ScoreBreakdown["total"] = kw.Score
	return card
}

// BuildResult creates a card for a lookup that has no extraction score,
// such as a keyword chosen directly by the user.
func (b *Builder) BuildResult(res lookup.Result) Card {
	card := Card{
		ID:      b.NewID(),
		Keyword: res.Keyword,
		Source:  res.Source,
		Title:   res.Title,
		URL:     res.URL,
		Lang:    res.Lang,
		Found:   res.Found,
		Cached:  res.Cached,
	}
	if card.Title == "" {
		card.Title = res.Keyword
	}
	if res.Err != nil {
		card.Error = res.Err.Error()
	}

	// The LLM explanation leads; the article extract follows when both exist
	switch {
	case !res.Found:
		card.Body = NoResults
	case res.Explanation != "" && res.Summary != "":
		card.Body = res.Explanation + "\n\n" + res.Summary
	case res.Explanation != "":
		card.Body = res.Explanation
	default:
		card.Body = res.Summary
	}
	if card.Body == "" {
		card.Body = NoResults
	}
	return card
}
