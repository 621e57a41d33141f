package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Candidate is a substring found by pattern matching, before scoring
type Candidate struct {
	Text   string
	Class  Class
	Offset int // byte offset of the first occurrence
}

type patterns struct {
	katakana  *regexp.Regexp
	latin     *regexp.Regexp
	ideograph *regexp.Regexp
	terms     *regexp.Regexp // nil when no terms are configured
}

var (
	katakanaRun  = regexp.MustCompile(`[\p{Katakana}ー]{3,}`)
	latinRun     = regexp.MustCompile(`\b[A-Za-z]{2,}\b`)
	ideographRun = regexp.MustCompile(`\p{Han}{2,6}`)
)

func compilePatterns(terms []string) patterns {
	return patterns{
		katakana:  katakanaRun,
		latin:     latinRun,
		ideograph: ideographRun,
		terms:     compileTerms(terms),
	}
}

// compileTerms builds one case-insensitive alternation, longest term first so
// "JavaScript" wins over a shorter prefix. Latin terms match on word boundaries.
func compileTerms(terms []string) *regexp.Regexp {
	uniq := make(map[string]struct{}, len(terms))
	var list []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := uniq[strings.ToLower(t)]; ok {
			continue
		}
		uniq[strings.ToLower(t)] = struct{}{}
		list = append(list, t)
	}
	if len(list) == 0 {
		return nil
	}
	sort.Slice(list, func(i, j int) bool {
		if len(list[i]) != len(list[j]) {
			return len(list[i]) > len(list[j])
		}
		return list[i] < list[j]
	})

	alts := make([]string, len(list))
	for i, t := range list {
		quoted := regexp.QuoteMeta(t)
		if isASCIIWord(t) {
			quoted = `\b` + quoted + `\b`
		}
		alts[i] = quoted
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

type match struct {
	text   string
	class  Class
	offset int
}

// Candidates scans text with the character-class patterns and returns the
// merged candidate list ordered by first occurrence.
func (e *Extractor) Candidates(text string) []Candidate {
	var matches []match

	if e.patterns.terms != nil {
		for _, loc := range e.patterns.terms.FindAllStringIndex(text, -1) {
			matches = append(matches, match{text[loc[0]:loc[1]], ClassTerm, loc[0]})
		}
	}
	for _, loc := range e.patterns.katakana.FindAllStringIndex(text, -1) {
		matches = append(matches, match{text[loc[0]:loc[1]], ClassKatakana, loc[0]})
	}
	for _, loc := range e.patterns.latin.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		class := ClassLatin
		if isUpperASCII(word) {
			class = ClassAcronym
		} else if len(word) < 3 {
			continue
		}
		matches = append(matches, match{word, class, loc[0]})
	}
	for _, loc := range e.patterns.ideograph.FindAllStringIndex(text, -1) {
		matches = append(matches, match{text[loc[0]:loc[1]], ClassIdeograph, loc[0]})
	}

	// Terms sort ahead of a class match at the same offset.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].offset != matches[j].offset {
			return matches[i].offset < matches[j].offset
		}
		return matches[i].class == ClassTerm && matches[j].class != ClassTerm
	})

	lower := strings.ToLower(text)
	index := make(map[string]int, len(matches))
	var out []Candidate
	for _, m := range matches {
		if !strings.Contains(lower, strings.ToLower(m.text)) {
			continue
		}
		key := FoldKey(m.text)
		if i, ok := index[key]; ok {
			if m.class == ClassTerm {
				out[i].Class = ClassTerm
			}
			continue
		}
		index[key] = len(out)
		out = append(out, Candidate{Text: m.text, Class: m.class, Offset: m.offset})
	}
	return out
}

func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return s != ""
}

func isUpperASCII(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return s != ""
}
