package extract

import (
	"unicode"
	"unicode/utf8"
)

// valid applies the length bounds, exclusion lists and shape checks.
func (e *Extractor) valid(c Candidate) bool {
	n := utf8.RuneCountInString(c.Text)
	if n < e.opts.MinLength || n > e.opts.MaxLength {
		return false
	}
	if e.stops.IsStop(c.Text) {
		return false
	}
	if e.stops.HasFragment(c.Text) {
		return false
	}
	if isShortRun(c, n) {
		return false
	}
	if isDigitsOrPunct(c.Text) {
		return false
	}
	return true
}

// isShortRun rejects candidates that are only a brief run of one script:
// kana of two symbols or fewer, and two-letter Latin that is not an acronym.
func isShortRun(c Candidate, n int) bool {
	if n <= 2 && isKanaOnly(c.Text) {
		return true
	}
	if n == 2 && c.Class == ClassLatin {
		return true
	}
	return false
}

func isKanaOnly(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Hiragana, r) && !unicode.Is(unicode.Katakana, r) && r != 'ー' {
			return false
		}
	}
	return s != ""
}

func isDigitsOrPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
