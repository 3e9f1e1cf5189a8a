package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voice-qa-go/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit    int
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				var filter []history.Status
				for _, s := range statuses {
					filter = append(filter, history.Status(strings.ToLower(strings.TrimSpace(s))))
				}
				runs, err := store.List(cmd.Context(), limit, filter...)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Audio", "Status", "Outcome", "Q", "A", "Duration", "Created"},
					buildHistoryRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (running, completed, failed)")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				n, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", n)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of runs to delete")
	return cmd
}

func buildHistoryRows(runs []*history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		outcome := r.Outcome
		if r.Status == history.StatusFailed && r.ErrorMessage != "" {
			outcome = truncate(r.ErrorMessage, 40)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.Basename,
			string(r.Status),
			outcome,
			strconv.Itoa(r.QuestionCount),
			strconv.Itoa(r.AnswerCount),
			(time.Duration(r.DurationMs) * time.Millisecond).Round(time.Millisecond).String(),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
