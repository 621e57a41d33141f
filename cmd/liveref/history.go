package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/liveref/pkg/liveref/history"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or manage the search history",
	}
	cmd.AddCommand(
		newHistoryListCmd(g),
		newHistoryClearCmd(g),
		newHistoryExportCmd(g),
		newHistoryImportCmd(g),
	)
	return cmd
}

func newHistoryListCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent searches, newest first",
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

			entries, err := engine.History(ctx, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries, time.Now())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "entries to show (0 for all)")
	return cmd
}

func newHistoryClearCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
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

			if err := engine.ClearHistory(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	}
}

func newHistoryExportCmd(g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the history as JSON lines",
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

			entries, err := engine.History(ctx, 0)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return history.WriteJSONL(w, entries)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newHistoryImportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Add entries from a JSON lines export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.settings(cmd)
			if err != nil {
				return err
			}
			entries, err := history.LoadJSONL(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			engine, cleanup, err := buildEngine(ctx, s)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := engine.ImportHistory(ctx, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", n)
			return nil
		},
	}
}
