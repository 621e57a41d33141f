// Package extract turns free text into a short, ordered list of search keys.
//
// The pipeline is fixed: regular-expression candidate generation, a validity
// filter, a linear score and a top-N selection. It holds no state between
// calls, so Extract is a pure function of its input.
package extract

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/cognicore/liveref/pkg/liveref/stoplist"
)

// Hard limits that hold whatever the options say.
const (
	MaxKeywordsLimit = 5
	MaxLengthLimit   = 30
)

// Class is the character class of a candidate
type Class int

const (
	ClassLatin Class = iota
	ClassAcronym
	ClassKatakana
	ClassIdeograph
	ClassTerm
)

func (c Class) String() string {
	switch c {
	case ClassAcronym:
		return "acronym"
	case ClassKatakana:
		return "katakana"
	case ClassIdeograph:
		return "ideograph"
	case ClassTerm:
		return "term"
	default:
		return "latin"
	}
}

// Labeler assigns a category to an extracted keyword
type Labeler interface {
	Label(text string, class Class) string
}

// Keyword is a scored candidate that survived selection
type Keyword struct {
	Text      string
	Class     Class
	Category  string
	Score     float64
	Count     int
	Offset    int
	Breakdown Breakdown
}

// Options configures an Extractor
type Options struct {
	MaxKeywords   int     // capped at MaxKeywordsLimit
	MinScore      float64 // selection threshold
	MinTextLength int     // shorter input (in runes) yields nothing
	MinLength     int     // candidate length bounds, in runes
	MaxLength     int
	Terms         []string // known technical terms
	Weights       Weights
}

// DefaultOptions returns the stock extraction settings
func DefaultOptions() Options {
	return Options{
		MaxKeywords:   MaxKeywordsLimit,
		MinScore:      2.0,
		MinTextLength: 8,
		MinLength:     2,
		MaxLength:     15,
		Terms:         DefaultTerms(),
		Weights:       DefaultWeights(),
	}
}

// DefaultTerms returns the built-in list of known technical terms
func DefaultTerms() []string {
	return []string{
		"AI", "ML", "DX", "IoT", "API", "SDK", "UI", "UX", "CSS", "HTML",
		"JavaScript", "TypeScript", "Python", "React", "Rust", "Kubernetes",
		"機械学習", "人工知能", "データサイエンス", "プログラミング",
		"ウェブ開発", "フロントエンド", "バックエンド", "データベース",
		"セキュリティ", "クラウド", "インフラ", "ネットワーク",
		"アルゴリズム", "データ構造", "フレームワーク", "ライブラリ",
		"設計", "開発", "実装", "運用", "保守", "テスト",
	}
}

// Extractor runs the keyword pipeline
type Extractor struct {
	opts     Options
	stops    *stoplist.Manager
	labeler  Labeler
	patterns patterns
	scorer   *Scorer
}

// New creates an extractor. A nil stoplist means stoplist.Default(); a nil
// labeler leaves categories empty.
func New(opts Options, stops *stoplist.Manager, labeler Labeler) *Extractor {
	opts = normalizeOptions(opts)
	if stops == nil {
		stops = stoplist.Default()
	}
	return &Extractor{
		opts:     opts,
		stops:    stops,
		labeler:  labeler,
		patterns: compilePatterns(opts.Terms),
		scorer:   NewScorer(opts.Weights),
	}
}

func normalizeOptions(opts Options) Options {
	def := DefaultOptions()
	if opts.MaxKeywords <= 0 || opts.MaxKeywords > MaxKeywordsLimit {
		opts.MaxKeywords = MaxKeywordsLimit
	}
	if opts.MinScore <= 0 {
		opts.MinScore = def.MinScore
	}
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = def.MinTextLength
	}
	if opts.MinLength < def.MinLength {
		opts.MinLength = def.MinLength
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = def.MaxLength
	}
	if opts.MaxLength > MaxLengthLimit {
		opts.MaxLength = MaxLengthLimit
	}
	if opts.Terms == nil {
		opts.Terms = def.Terms
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = def.Weights
	}
	return opts
}

// Options returns the effective options after normalisation
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract returns up to MaxKeywords keywords, best first.
func (e *Extractor) Extract(text string) []Keyword {
	scored := e.Score(text)

	var out []Keyword
	for _, kw := range scored {
		if kw.Score < e.opts.MinScore {
			continue
		}
		out = append(out, kw)
		if len(out) == e.opts.MaxKeywords {
			break
		}
	}
	return out
}

// Score runs generation, filtering and scoring without the threshold or the
// top-N cut. Results are sorted best first.
func (e *Extractor) Score(text string) []Keyword {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < e.opts.MinTextLength {
		return nil
	}

	stats := newTextStats(text)
	var scored []Keyword
	for _, c := range e.Candidates(text) {
		if !e.valid(c) {
			continue
		}
		breakdown, count := e.scorer.Score(c, stats)
		kw := Keyword{
			Text:      c.Text,
			Class:     c.Class,
			Score:     breakdown.Total,
			Count:     count,
			Offset:    c.Offset,
			Breakdown: breakdown,
		}
		if e.labeler != nil {
			kw.Category = e.labeler.Label(c.Text, c.Class)
		}
		scored = append(scored, kw)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Offset != scored[j].Offset {
			return scored[i].Offset < scored[j].Offset
		}
		return scored[i].Text < scored[j].Text
	})
	return scored
}

// Texts returns the keyword strings in order
func Texts(kws []Keyword) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Text
	}
	return out
}

// FoldKey maps full-width forms to their narrow equivalents and lower-cases,
// so "ＡＰＩ" and "api" share a key.
func FoldKey(s string) string {
	return strings.ToLower(width.Fold.String(strings.TrimSpace(s)))
}
