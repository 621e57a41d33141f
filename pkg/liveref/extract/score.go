package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Weights defines the constants of the linear keyword score
type Weights struct {
	Term      float64 // class base scores
	Katakana  float64
	Acronym   float64
	Ideograph float64
	Latin     float64

	MidLength   float64 // 3–8 runes
	LongLength  float64 // 9–15 runes
	Capitalized float64 // Latin word starting with an upper-case letter

	Frequency      float64 // multiplied by 1/count
	Position       float64 // first occurrence inside the leading PositionCutoff share
	PositionCutoff float64
	Independence   float64 // some occurrence not glued to same-script characters
}

// DefaultWeights returns the stock scoring constants
func DefaultWeights() Weights {
	return Weights{
		Term:           1.5,
		Katakana:       1.0,
		Acronym:        1.0,
		Ideograph:      0.8,
		Latin:          0.6,
		MidLength:      0.5,
		LongLength:     0.2,
		Capitalized:    0.3,
		Frequency:      1.0,
		Position:       0.5,
		PositionCutoff: 0.3,
		Independence:   0.5,
	}
}

// Breakdown provides the per-component score of a keyword
type Breakdown struct {
	Intrinsic    float64
	Frequency    float64
	Position     float64
	Independence float64
	Total        float64
}

// Map returns the breakdown keyed by component name
func (b Breakdown) Map() map[string]float64 {
	return map[string]float64{
		"intrinsic":    b.Intrinsic,
		"frequency":    b.Frequency,
		"position":     b.Position,
		"independence": b.Independence,
	}
}

// Scorer computes keyword scores
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

type textStats struct {
	lower string
	runes int
}

func newTextStats(text string) textStats {
	lower := strings.ToLower(text)
	return textStats{lower: lower, runes: utf8.RuneCountInString(lower)}
}

// Score calculates the score of candidate c within the text described by
// stats, and the number of case-insensitive occurrences.
//
// score = intrinsic(class, length) + frequency/count + position + independence
func (s *Scorer) Score(c Candidate, stats textStats) (Breakdown, int) {
	needle := strings.ToLower(c.Text)
	count := strings.Count(stats.lower, needle)
	if count == 0 {
		count = 1
	}

	b := Breakdown{
		Intrinsic: s.intrinsic(c),
		Frequency: s.weights.Frequency / float64(count),
	}

	if idx := strings.Index(stats.lower, needle); idx >= 0 && stats.runes > 0 {
		pos := utf8.RuneCountInString(stats.lower[:idx])
		if float64(pos) < s.weights.PositionCutoff*float64(stats.runes) {
			b.Position = s.weights.Position
		}
	}

	if standsAlone(stats.lower, needle) {
		b.Independence = s.weights.Independence
	}

	b.Total = b.Intrinsic + b.Frequency + b.Position + b.Independence
	return b, count
}

func (s *Scorer) intrinsic(c Candidate) float64 {
	var score float64
	switch c.Class {
	case ClassTerm:
		score = s.weights.Term
	case ClassKatakana:
		score = s.weights.Katakana
	case ClassAcronym:
		score = s.weights.Acronym
	case ClassIdeograph:
		score = s.weights.Ideograph
	default:
		score = s.weights.Latin
	}

	n := utf8.RuneCountInString(c.Text)
	switch {
	case n >= 3 && n <= 8:
		score += s.weights.MidLength
	case n >= 9 && n <= 15:
		score += s.weights.LongLength
	}

	if c.Class == ClassLatin {
		first, _ := utf8.DecodeRuneInString(c.Text)
		if unicode.IsUpper(first) {
			score += s.weights.Capitalized
		}
	}
	return score
}

// standsAlone reports whether at least one occurrence of needle in haystack
// is not adjacent to a word character of the same script as its edge.
func standsAlone(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	head, _ := utf8.DecodeRuneInString(needle)
	tail, _ := utf8.DecodeLastRuneInString(needle)

	start := 0
	for {
		i := strings.Index(haystack[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(needle)

		glued := false
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(haystack[:i])
			glued = sameScript(prev, head)
		}
		if !glued && end < len(haystack) {
			next, _ := utf8.DecodeRuneInString(haystack[end:])
			glued = sameScript(next, tail)
		}
		if !glued {
			return true
		}
		start = end
	}
}

type script int

const (
	scriptOther script = iota
	scriptLatin
	scriptKatakana
	scriptHiragana
	scriptHan
)

func scriptOf(r rune) script {
	switch {
	case r == '_' || (r <= unicode.MaxASCII && unicode.IsDigit(r)):
		return scriptLatin
	case unicode.Is(unicode.Latin, r):
		return scriptLatin
	case r == 'ー' || unicode.Is(unicode.Katakana, r):
		return scriptKatakana
	case unicode.Is(unicode.Hiragana, r):
		return scriptHiragana
	case unicode.Is(unicode.Han, r):
		return scriptHan
	default:
		return scriptOther
	}
}

func sameScript(a, b rune) bool {
	sa := scriptOf(a)
	return sa != scriptOther && sa == scriptOf(b)
}
