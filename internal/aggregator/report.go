package aggregator

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

var resultsHeader = []any{"Case", "Audio", "Outcome", "WER", "Answer Similarity", "Questions", "Answers", "Latency (ms)", "Error"}

// WriteReport saves results and their summary as an xlsx workbook.
func WriteReport(path string, results []CaseResult, summary Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, resultsSheet, 1, resultsHeader); err != nil {
		return err
	}
	for i, r := range results {
		var sim any = ""
		if r.HasAnswerScore {
			sim = r.AnswerSimilarity
		}
		row := []any{r.Name, r.AudioPath, r.Outcome, r.WER, sim, r.Questions, r.Answers, r.LatencyMs, r.Error}
		if err := setRow(f, resultsSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(resultsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	rows := [][]any{
		{"Cases", summary.Cases},
		{"Failed", summary.Failed},
		{"Mean WER", summary.MeanWER},
		{"Mean Answer Similarity", summary.MeanAnswerSimilarity},
		{"Scored Answers", summary.ScoredAnswers},
		{"Mean Latency (ms)", summary.MeanLatencyMs},
		{"P95 Latency (ms)", summary.P95LatencyMs},
	}
	outcomes := make([]string, 0, len(summary.Outcomes))
	for k := range summary.Outcomes {
		outcomes = append(outcomes, k)
	}
	sort.Strings(outcomes)
	for _, k := range outcomes {
		rows = append(rows, []any{"Outcome: " + k, summary.Outcomes[k]})
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
