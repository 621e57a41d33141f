package config

import (
	"fmt"

	"github.com/cognicore/liveref/pkg/liveref/extract"
	"github.com/cognicore/liveref/pkg/liveref/stoplist"
	"github.com/cognicore/liveref/pkg/liveref/taxonomy"
)

// Loader loads the word-list files and constructs the extraction pipeline
type Loader struct {
	StoplistPath string
	TaxonomyPath string
	Extract      Extract
}

// NewLoader returns a loader for the extraction section of s
func NewLoader(s Settings) *Loader {
	return &Loader{
		StoplistPath: s.Extract.StoplistPath,
		TaxonomyPath: s.Extract.TaxonomyPath,
		Extract:      s.Extract,
	}
}

// Components holds all loaded configuration components
type Components struct {
	Stoplist  *stoplist.Manager
	Taxonomy  *taxonomy.Taxonomy
	Extractor *extract.Extractor
}

// Load reads the configured files and returns initialized components. The
// built-in stoplist is always present; a stoplist file extends it.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{
		Stoplist: stoplist.Default(),
		Taxonomy: taxonomy.New(),
	}

	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		for _, term := range sl.Terms {
			comp.Stoplist.Add(term, stoplist.KindCustom)
		}
		comp.Stoplist.AddFragments(sl.Prefixes, sl.Suffixes)
	}

	if l.TaxonomyPath != "" {
		taxConfig, err := LoadTaxonomy(l.TaxonomyPath)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		for name, keywords := range taxConfig.Categories {
			comp.Taxonomy.AddCategory(name, keywords)
		}
	}

	comp.Extractor = extract.New(l.options(), comp.Stoplist, comp.Taxonomy)
	return comp, nil
}

func (l *Loader) options() extract.Options {
	opts := extract.DefaultOptions()
	if l.Extract.MaxKeywords > 0 {
		opts.MaxKeywords = l.Extract.MaxKeywords
	}
	if l.Extract.MinScore > 0 {
		opts.MinScore = l.Extract.MinScore
	}
	if l.Extract.MinTextLength > 0 {
		opts.MinTextLength = l.Extract.MinTextLength
	}
	if len(l.Extract.Terms) > 0 {
		opts.Terms = append(append([]string(nil), opts.Terms...), l.Extract.Terms...)
	}
	return opts
}
