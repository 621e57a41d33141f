package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/liveref/pkg/liveref"
	"github.com/cognicore/liveref/pkg/liveref/config"
	"github.com/cognicore/liveref/pkg/liveref/debounce"
)

func newExtractCmd(g *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "extract [text...]",
		Short: "Print the keywords of a text without looking them up",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings(cmd)
			if err != nil {
				return err
			}
			text, err := readInput(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			components, err := config.NewLoader(s).Load()
			if err != nil {
				return err
			}
			renderKeywords(cmd.OutOrStdout(), components.Extractor.Extract(text))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from a file (- for stdin)")
	return cmd
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	var (
		file        string
		skipHistory bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Extract keywords and show a reference card for each",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings(cmd)
			if err != nil {
				return err
			}
			text, err := readInput(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			engine, cleanup, err := buildEngine(ctx, s)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := engine.Analyze(ctx, liveref.AnalyzeRequest{Text: text, SkipHistory: skipHistory})
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read text from a file (- for stdin)")
	cmd.Flags().BoolVar(&skipHistory, "no-history", false, "do not record this search")
	return cmd
}

func newLookupCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <keyword>",
		Short: "Look up a single keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			engine, cleanup, err := buildEngine(ctx, s)
			if err != nil {
				return err
			}
			defer cleanup()

			card, err := engine.LookupKeyword(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderCard(cmd.OutOrStdout(), card)
			return nil
		},
	}
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	var delay string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Read text from stdin and analyze it as it arrives",
		Long: "watch accumulates stdin line by line and analyzes the text once input has\n" +
			"been quiet for the debounce delay. An empty line analyzes immediately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings(cmd)
			if err != nil {
				return err
			}
			if delay != "" {
				if err := s.ApplyEnv(config.MapLookup(map[string]string{config.EnvDebounce: delay})); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, cleanup, err := buildEngine(ctx, s)
			if err != nil {
				return err
			}
			defer cleanup()

			return watch(ctx, engine, s, cmd)
		},
	}
	cmd.Flags().StringVar(&delay, "debounce", "", "quiet period before analysis, e.g. 300ms")
	return cmd
}

func watch(ctx context.Context, engine *liveref.Engine, s config.Settings, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	d := debounce.New(s.Debounce, func(text string) {
		report, err := engine.Analyze(ctx, liveref.AnalyzeRequest{Text: text})
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "analyze:", err)
			return
		}
		renderReport(out, report)
	})
	defer d.Stop()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var buf strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				d.Flush()
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if strings.TrimSpace(line) == "" {
				d.Flush()
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
			d.Trigger(buf.String())
		}
	}
}
