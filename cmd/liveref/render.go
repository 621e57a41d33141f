package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/cognicore/liveref/pkg/liveref"
	"github.com/cognicore/liveref/pkg/liveref/cards"
	"github.com/cognicore/liveref/pkg/liveref/extract"
	"github.com/cognicore/liveref/pkg/liveref/history"
)

var (
	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"}).
			Bold(true)
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
			Bold(true)
	missStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
	dimStyle  = lipgloss.NewStyle().Faint(true)
	bodyStyle = lipgloss.NewStyle().PaddingLeft(3).Width(80)
)

func renderKeywords(w io.Writer, kws []extract.Keyword) {
	if len(kws) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no keywords"))
		return
	}
	for i, kw := range kws {
		fmt.Fprintf(w, "%d. %s  %s\n", i+1,
			tagStyle.Render(kw.Text),
			dimStyle.Render(fmt.Sprintf("%s/%s score=%.2f %s", kw.Class, kw.Category, kw.Score, formatBreakdown(kw.Breakdown.Map()))),
		)
	}
}

func renderReport(w io.Writer, report liveref.Report) {
	if len(report.Keywords) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no keywords found"))
		return
	}

	tags := make([]string, len(report.Keywords))
	for i, kw := range report.Keywords {
		tags[i] = tagStyle.Render("#" + kw.Text)
	}
	fmt.Fprintln(w, strings.Join(tags, " "))
	fmt.Fprintln(w)

	for _, card := range report.Cards {
		renderCard(w, card)
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d/%d found in %s",
		report.Found, len(report.Cards), report.Elapsed.Round(time.Millisecond))))
}

func renderCard(w io.Writer, card cards.Card) {
	if !card.Found {
		fmt.Fprintln(w, missStyle.Render("✗ "+card.Keyword))
		fmt.Fprintln(w, bodyStyle.Render(card.Body))
		fmt.Fprintln(w)
		return
	}

	header := titleStyle.Render(card.Title)
	if card.Source != "" {
		header += " " + dimStyle.Render("["+string(card.Source)+"]")
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, bodyStyle.Render(card.Body))
	if card.URL != "" {
		fmt.Fprintln(w, "   "+dimStyle.Render(card.URL))
	}
	fmt.Fprintln(w)
}

func renderHistory(w io.Writer, entries []history.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no history"))
		return
	}
	for _, e := range entries {
		age := humanize.RelTime(e.CreatedAt, now, "ago", "from now")
		fmt.Fprintf(w, "%s  %s  %s\n",
			dimStyle.Render(fmt.Sprintf("%-14s", age)),
			tagStyle.Render(strings.Join(e.Keywords, ", ")),
			dimStyle.Render(fmt.Sprintf("(%d found)", e.Results)),
		)
		if e.Snippet != "" {
			fmt.Fprintln(w, "   "+e.Snippet)
		}
	}
}

func formatBreakdown(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.2f", k, m[k])
	}
	return strings.Join(parts, " ")
}
