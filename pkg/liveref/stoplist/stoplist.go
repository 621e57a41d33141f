package stoplist

import (
	"sort"
	"strings"
)

// Kind explains why a token is excluded
type Kind int

const (
	KindCustom      Kind = iota // loaded from configuration
	KindFunction                // function word (English or Japanese)
	KindHTTPVerb                // GET, POST, ...
	KindProgramming             // common programming tokens
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindHTTPVerb:
		return "http-verb"
	case KindProgramming:
		return "programming"
	default:
		return "custom"
	}
}

// Manager holds whole-word exclusions and the function-word fragments a
// candidate may not begin or end with.
type Manager struct {
	stops    map[string]Kind
	prefixes []string
	suffixes []string
}

var functionWords = []string{
	// English
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of",
	"with", "by", "an", "a", "is", "are", "was", "were", "be", "been",
	"this", "that", "these", "those", "from", "into", "about", "than",
	"then", "there", "here", "have", "has", "had", "not", "you", "your",
	"our", "their", "they", "them", "what", "which", "when", "where",
	"will", "would", "can", "could", "should", "just", "also", "very",
	// Japanese
	"する", "です", "である", "ます", "だ", "と", "の", "が", "を", "に",
	"で", "は", "も", "から", "まで", "こと", "もの", "ため", "よう",
}

var httpVerbs = []string{
	"get", "post", "put", "delete", "patch", "head", "options", "connect", "trace",
}

var programmingTokens = []string{
	"var", "let", "const", "function", "return", "if", "else", "for", "while",
	"import", "export", "from", "class", "new", "this", "null", "undefined",
	"true", "false", "void", "async", "await", "try", "catch", "throw",
	"http", "https", "www", "com", "org", "net", "localhost", "todo",
}

// Leading/trailing fragments that never start or end a real keyword:
// small kana, the prolonged sound mark and Sino-Japanese conjunctions.
var defaultPrefixes = []string{
	"ー", "ッ", "ャ", "ュ", "ョ", "ァ", "ィ", "ゥ", "ェ", "ォ", "ン", "・",
	"及", "又", "並", "等", "其", "此", "於",
}

var defaultSuffixes = []string{
	"・", "及", "又", "並", "等", "於",
}

// NewManager creates a manager holding only the given custom stopwords
func NewManager(initialStops []string) *Manager {
	m := &Manager{stops: make(map[string]Kind, len(initialStops))}
	for _, s := range initialStops {
		m.Add(s, KindCustom)
	}
	return m
}

// Default returns a manager preloaded with the built-in exclusion lists.
func Default() *Manager {
	m := NewManager(nil)
	for _, w := range functionWords {
		m.Add(w, KindFunction)
	}
	for _, w := range httpVerbs {
		m.Add(w, KindHTTPVerb)
	}
	for _, w := range programmingTokens {
		if _, ok := m.stops[w]; ok {
			continue
		}
		m.Add(w, KindProgramming)
	}
	m.prefixes = append(m.prefixes, defaultPrefixes...)
	m.suffixes = append(m.suffixes, defaultSuffixes...)
	return m
}

// IsStop checks if a token is a stopword (case-insensitive)
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[strings.ToLower(token)]
	return ok
}

// KindOf reports why token is excluded.
func (m *Manager) KindOf(token string) (Kind, bool) {
	k, ok := m.stops[strings.ToLower(token)]
	return k, ok
}

// HasFragment reports whether token begins or ends with a function-word fragment.
func (m *Manager) HasFragment(token string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	for _, s := range m.suffixes {
		if strings.HasSuffix(token, s) {
			return true
		}
	}
	return false
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string, kind Kind) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	m.stops[token] = kind
}

// AddFragments registers extra prefixes and suffixes.
func (m *Manager) AddFragments(prefixes, suffixes []string) {
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			m.prefixes = append(m.prefixes, p)
		}
	}
	for _, s := range suffixes {
		if s = strings.TrimSpace(s); s != "" {
			m.suffixes = append(m.suffixes, s)
		}
	}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// All returns all stopwords, sorted
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}
