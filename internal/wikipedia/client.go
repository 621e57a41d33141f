// Package wikipedia fetches page summaries from the Wikipedia REST API.
package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/cognicore/liveref/pkg/liveref/internalerr"
	"github.com/cognicore/liveref/pkg/liveref/lookup"
)

const (
	// DefaultBaseURL is the summary endpoint; {lang} is replaced per request.
	DefaultBaseURL   = "https://{lang}.wikipedia.org/api/rest_v1/page/summary/"
	DefaultUserAgent = "liveref/1.0 (https://github.com/cognicore/liveref)"
)

// DefaultLangs is the lookup order: Japanese first, English as fallback.
var DefaultLangs = []string{"ja", "en"}

// Client looks terms up in each configured language edition in turn.
type Client struct {
	BaseURL   string
	Langs     []string
	UserAgent string

	// Limiter throttles outgoing requests; nil disables throttling.
	Limiter *rate.Limiter

	HTTPClient *http.Client
}

// NewClient returns a client with default endpoint and languages, limited
// to rps requests per second (<= 0 disables the limit).
func NewClient(rps float64) *Client {
	c := &Client{
		BaseURL:   DefaultBaseURL,
		Langs:     append([]string(nil), DefaultLangs...),
		UserAgent: DefaultUserAgent,
	}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return c
}

type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
	Lang        string `json:"lang"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary returns the first summary found across Langs. Missing pages and
// upstream failures in one language move on to the next; when every language
// fails the error wraps internalerr.ErrNotFound.
func (c *Client) Summary(ctx context.Context, term string) (lookup.Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return lookup.Article{}, fmt.Errorf("wikipedia: %w: empty term", internalerr.ErrInvalidInput)
	}

	langs := c.Langs
	if len(langs) == 0 {
		langs = DefaultLangs
	}

	var errs []error
	for _, lang := range langs {
		art, err := c.fetch(ctx, lang, term)
		if err == nil {
			return art, nil
		}
		if ctx.Err() != nil {
			return lookup.Article{}, ctx.Err()
		}
		errs = append(errs, err)
	}
	return lookup.Article{}, fmt.Errorf("wikipedia %q: %w: %w", term, internalerr.ErrNotFound, errors.Join(errs...))
}

func (c *Client) fetch(ctx context.Context, lang, term string) (lookup.Article, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return lookup.Article{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(lang, term), nil)
	if err != nil {
		return lookup.Article{}, err
	}
	req.Header.Set("Accept", "application/json")
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return lookup.Article{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return lookup.Article{}, fmt.Errorf("%s: status %d", lang, resp.StatusCode)
	}

	var payload summaryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return lookup.Article{}, fmt.Errorf("%s: decode summary: %w", lang, err)
	}
	// Disambiguation pages carry no usable summary.
	if payload.Type == "disambiguation" {
		return lookup.Article{}, fmt.Errorf("%s: disambiguation page", lang)
	}

	extract := strings.TrimSpace(payload.Extract)
	if extract == "" && payload.ExtractHTML != "" {
		extract = stripHTML(payload.ExtractHTML)
	}
	if extract == "" {
		return lookup.Article{}, fmt.Errorf("%s: empty summary", lang)
	}

	art := lookup.Article{
		Title:   payload.Title,
		Extract: extract,
		URL:     payload.ContentURLs.Desktop.Page,
		Lang:    payload.Lang,
	}
	if art.Lang == "" {
		art.Lang = lang
	}
	return art, nil
}

func (c *Client) endpoint(lang, term string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.ReplaceAll(base, "{lang}", lang)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(strings.ReplaceAll(term, " ", "_"))
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// stripHTML returns the text content of an HTML fragment.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
