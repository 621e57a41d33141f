package taxonomy

import (
	"testing"

	"github.com/cognicore/liveref/pkg/liveref/extract"
)

func TestLabelConfigured(t *testing.T) {
	tax := New()
	tax.AddCategory("language", []string{"Python", "JavaScript", ""})
	tax.AddCategory("field", []string{"機械学習"})

	tests := []struct {
		text  string
		class extract.Class
		want  string
	}{
		{"python", extract.ClassLatin, "language"},
		{"ＰＹＴＨＯＮ", extract.ClassLatin, "language"},
		{"機械学習", extract.ClassIdeograph, "field"},
		{"人工知能", extract.ClassIdeograph, CategoryConcept},
		{"API", extract.ClassAcronym, CategoryTechnology},
		{"コンピュータ", extract.ClassKatakana, CategoryLoanword},
		{"golang", extract.ClassLatin, CategoryTerm},
		{"IoT", extract.ClassTerm, CategoryTechnology},
	}

	for _, tt := range tests {
		if got := tax.Label(tt.text, tt.class); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestOverlappingCategoriesDeterministic(t *testing.T) {
	a := New()
	a.AddCategory("web", []string{"react"})
	a.AddCategory("frontend", []string{"react"})

	b := New()
	b.AddCategory("frontend", []string{"react"})
	b.AddCategory("web", []string{"react"})

	if a.Label("React", extract.ClassLatin) != "frontend" || b.Label("React", extract.ClassLatin) != "frontend" {
		t.Error("overlapping keyword should resolve to the alphabetically first category")
	}

	cats := a.Categories()
	if len(cats) != 2 || cats[0] != "frontend" {
		t.Errorf("unexpected categories %v", cats)
	}
}
