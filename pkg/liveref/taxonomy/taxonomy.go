package taxonomy

import (
	"sort"

	"github.com/cognicore/liveref/pkg/liveref/extract"
)

// Default category names used when no configured category matches
const (
	CategoryTechnology = "technology"
	CategoryLoanword   = "loanword"
	CategoryConcept    = "concept"
	CategoryTerm       = "term"
)

// Taxonomy labels keywords with categories
type Taxonomy struct {
	categories map[string][]string // category → folded keywords
	index      map[string]string   // folded keyword → category
}

// New creates an empty taxonomy
func New() *Taxonomy {
	return &Taxonomy{
		categories: make(map[string][]string),
		index:      make(map[string]string),
	}
}

// AddCategory adds a category with its keywords. A keyword already claimed by
// another category keeps its first (alphabetically smallest) owner so that
// labelling stays deterministic regardless of map iteration order.
func (t *Taxonomy) AddCategory(name string, keywords []string) {
	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		key := extract.FoldKey(kw)
		if key == "" {
			continue
		}
		folded = append(folded, key)
		if owner, ok := t.index[key]; !ok || name < owner {
			t.index[key] = name
		}
	}
	t.categories[name] = append(t.categories[name], folded...)
}

// Categories returns the configured category names, sorted
func (t *Taxonomy) Categories() []string {
	names := make([]string, 0, len(t.categories))
	for name := range t.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Label implements extract.Labeler
func (t *Taxonomy) Label(text string, class extract.Class) string {
	if cat, ok := t.index[extract.FoldKey(text)]; ok {
		return cat
	}
	return DefaultLabel(class)
}

// DefaultLabel derives a category from the character class alone
func DefaultLabel(class extract.Class) string {
	switch class {
	case extract.ClassTerm, extract.ClassAcronym:
		return CategoryTechnology
	case extract.ClassKatakana:
		return CategoryLoanword
	case extract.ClassIdeograph:
		return CategoryConcept
	default:
		return CategoryTerm
	}
}
