// Command liveref extracts keywords from text and looks them up on
// Wikipedia or through an OpenAI-compatible model.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/liveref/internal/llm"
	"github.com/cognicore/liveref/internal/logger"
	"github.com/cognicore/liveref/internal/wikipedia"
	"github.com/cognicore/liveref/pkg/liveref"
	"github.com/cognicore/liveref/pkg/liveref/config"
	"github.com/cognicore/liveref/pkg/liveref/history"
	"github.com/cognicore/liveref/pkg/liveref/history/memstore"
	"github.com/cognicore/liveref/pkg/liveref/history/sqlite"
	"github.com/cognicore/liveref/pkg/liveref/lookup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	envPath    string
	history    string
	mode       string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "liveref",
		Short:         "Live reference lookups for free text",
		Long:          "liveref picks the salient keywords out of text and shows a short reference card for each.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML settings file")
	pf.StringVar(&g.envPath, "env-file", ".env", "dotenv file with OPENAI_API_KEY (missing file is ignored)")
	pf.StringVar(&g.history, "history", "", "history database path (empty string keeps history in memory)")
	pf.StringVarP(&g.mode, "mode", "m", "", "lookup mode: auto, wikipedia, llm or both")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newExtractCmd(g),
		newAnalyzeCmd(g),
		newLookupCmd(g),
		newWatchCmd(g),
		newHistoryCmd(g),
		newServeCmd(g),
	)
	return root
}

// settings resolves configuration and applies command-line overrides
func (g *globalFlags) settings(cmd *cobra.Command) (config.Settings, error) {
	s, err := config.Resolve(g.configPath, g.envPath)
	if err != nil {
		return s, err
	}
	if cmd.Flags().Changed("history") {
		s.History.Path = g.history
	}
	if g.mode != "" {
		s.Lookup.Mode = g.mode
	}
	if g.verbose {
		s.LogLevel = "debug"
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, logger.SetLevel(s.LogLevel)
}

// buildEngine wires the extractor, lookup backends and history store
func buildEngine(ctx context.Context, s config.Settings) (*liveref.Engine, func(), error) {
	components, err := config.NewLoader(s).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	lookups, err := newLookupService(s)
	if err != nil {
		return nil, nil, err
	}

	store, err := openHistory(ctx, s.History)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	engine, err := liveref.New(liveref.Options{
		Extractor: components.Extractor,
		Lookup:    lookups,
		History:   store,
		Logger:    logger.New("liveref"),
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		engine.Close()
	}
	return engine, cleanup, nil
}

func newLookupService(s config.Settings) (*lookup.Service, error) {
	httpClient := &http.Client{Timeout: s.Lookup.Timeout}

	wiki := wikipedia.NewClient(s.Lookup.WikipediaRPS)
	if len(s.Lookup.Langs) > 0 {
		wiki.Langs = s.Lookup.Langs
	}
	wiki.HTTPClient = httpClient

	var explainer lookup.Explainer
	if s.HasValidAPIKey() {
		explainer = &llm.Client{
			BaseURL:     s.OpenAI.BaseURL,
			APIKey:      s.OpenAI.APIKey,
			Model:       s.OpenAI.Model,
			MaxTokens:   s.OpenAI.MaxTokens,
			Temperature: s.OpenAI.Temperature,
			HTTPClient:  httpClient,
		}
	}

	return lookup.New(wiki, explainer, lookup.Options{
		Mode:           lookup.Mode(s.Lookup.Mode),
		CacheSize:      s.Lookup.CacheSize,
		MaxConcurrency: s.Lookup.Concurrency,
		Logger:         logger.New("lookup"),
	})
}

func openHistory(ctx context.Context, h config.History) (history.Store, error) {
	if h.Path == "" {
		return memstore.New(h.MaxEntries), nil
	}
	return sqlite.Open(ctx, h.Path, h.MaxEntries)
}

// readInput joins args, or reads file ("-" for stdin), or stdin when
// neither is given.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
