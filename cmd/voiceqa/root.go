package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voice-qa-go/internal/app"
	"voice-qa-go/internal/output"
	"voice-qa-go/internal/types"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag   string
		outputFormat string
		language     string
		enhance      bool
		jobID        string
		audioHash    string
	)
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "voiceqa <audio>",
		Short:         "Answer the questions asked in an audio recording",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			job := app.Job{
				AudioPath: args[0],
				Language:  strings.TrimSpace(language),
				Format:    format,
				Enhance:   enhance,
				JobID:     jobID,
				AudioHash: audioHash,
			}
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Process(cmd.Context(), job)
				if err != nil {
					return err
				}
				printResult(cmd, res)
				return nil
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVar(&outputFormat, "output_format", "json", "Output format: json, text or pdf")
	rootCmd.Flags().StringVar(&language, "language", "", "Spoken language (ISO code or name); detected when empty")
	rootCmd.Flags().BoolVar(&enhance, "enhance-audio", false, "Denoise and normalize the audio before transcription")
	rootCmd.Flags().StringVar(&jobID, "job-id", "", "Job identifier; output is named <job-id>_<audio hash>")
	rootCmd.Flags().StringVar(&audioHash, "audio-hash", "", "Audio hash used with --job-id instead of hashing the file")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newEvaluateCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}

func printResult(cmd *cobra.Command, res app.ProcessResult) {
	out := cmd.OutOrStdout()
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
		return
	}
	if res.Document != nil && len(res.Document.Answers) > 0 {
		rows := make([][]string, 0, len(res.Document.Answers))
		for _, a := range res.Document.Answers {
			question := a.Question
			if question == "" {
				question = findQuestion(res.Document.Questions, a.QID)
			}
			rows = append(rows, []string{a.QID, question, output.LatexToUnicode(a.Answer)})
		}
		fmt.Fprint(out, renderTable([]string{"ID", "Question", "Answer"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
	}
	fmt.Fprintf(out, "Output saved to %s\n", res.OutputPath)
}

func findQuestion(qs []types.Question, id string) string {
	for _, q := range qs {
		if q.ID == id {
			return q.Question
		}
	}
	return ""
}
