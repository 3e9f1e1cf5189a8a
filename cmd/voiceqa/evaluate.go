package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"voice-qa-go/internal/actionable"
	"voice-qa-go/internal/aggregator"
	"voice-qa-go/internal/app"
	"voice-qa-go/internal/dataset"
	"voice-qa-go/internal/output"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var (
		reportPath string
		asJSON     bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "evaluate <manifest.xlsx|dir>",
		Short: "Run the pipeline over a dataset and score it against ground truth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := dataset.LoadAny(args[0])
			if err != nil {
				return err
			}
			if limit > 0 && len(cases) > limit {
				cases = cases[:limit]
			}
			if len(cases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No evaluation cases found")
				return nil
			}

			var results []aggregator.CaseResult
			err = ctx.withApp(cmd.Context(), func(a *app.App) error {
				for _, c := range cases {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					start := time.Now()
					res, err := a.Process(cmd.Context(), app.Job{
						AudioPath: c.AudioPath,
						Language:  c.Language,
						Format:    output.FormatJSON,
						JobID:     "eval_" + c.Name,
					})
					latency := time.Since(start).Milliseconds()
					if err != nil {
						results = append(results, aggregator.Failed(c, err, latency))
						continue
					}
					results = append(results, aggregator.Score(c, res.State, string(res.Outcome), latency))
				}
				return nil
			})
			if err != nil {
				return err
			}

			summary := aggregator.Aggregate(results)
			cards := actionable.Generate(summary)
			if reportPath != "" {
				if err := aggregator.WriteReport(reportPath, results, summary); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"results": results, "summary": summary, "actions": cards})
			}
			fmt.Fprint(out, renderResults(results))
			fmt.Fprint(out, renderSummary(summary))
			for _, card := range cards {
				fmt.Fprintf(out, "- %s: %s (%s)\n", card.Insight, card.Action, card.Impact)
			}
			if reportPath != "" {
				fmt.Fprintf(out, "Report saved to %s\n", reportPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "Write an xlsx report to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Evaluate at most this many cases")
	return cmd
}

func renderResults(results []aggregator.CaseResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		sim := "-"
		if r.HasAnswerScore {
			sim = fmt.Sprintf("%.2f", r.AnswerSimilarity)
		}
		outcome := r.Outcome
		if r.Error != "" {
			outcome = "error: " + r.Error
		}
		rows = append(rows, []string{
			r.Name,
			outcome,
			fmt.Sprintf("%.2f", r.WER),
			sim,
			strconv.FormatInt(r.LatencyMs, 10),
		})
	}
	return renderTable(
		[]string{"Case", "Outcome", "WER", "Similarity", "Latency (ms)"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}

func renderSummary(s aggregator.Summary) string {
	rows := [][]string{
		{"Cases", strconv.Itoa(s.Cases)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Mean WER", fmt.Sprintf("%.3f", s.MeanWER)},
		{"Mean answer similarity", fmt.Sprintf("%.3f", s.MeanAnswerSimilarity)},
		{"Mean latency (ms)", fmt.Sprintf("%.0f", s.MeanLatencyMs)},
		{"P95 latency (ms)", strconv.FormatInt(s.P95LatencyMs, 10)},
	}
	return renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
