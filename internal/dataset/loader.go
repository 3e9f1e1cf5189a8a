// Package dataset loads evaluation cases: audio files paired with a
// reference transcript and reference answers.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"voice-qa-go/internal/logger"
)

// Case is one audio file with its ground truth.
type Case struct {
	Name       string   `json:"name"`
	AudioPath  string   `json:"audio_path"`
	Transcript string   `json:"transcript,omitempty"`
	Answers    []string `json:"answers,omitempty"`
	Language   string   `json:"language,omitempty"`
}

type columns struct {
	audio, name, transcript, language int
	answers                           []int
}

// detectColumns maps header cells to fields by keyword.
func detectColumns(header []string) columns {
	c := columns{audio: -1, name: -1, transcript: -1, language: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "file") || strings.Contains(l, "path"):
			if c.audio == -1 {
				c.audio = i
			}
		case strings.Contains(l, "answer"):
			c.answers = append(c.answers, i)
		case strings.Contains(l, "transcript") || strings.Contains(l, "reference") || strings.Contains(l, "text"):
			if c.transcript == -1 {
				c.transcript = i
			}
		case strings.Contains(l, "lang"):
			if c.language == -1 {
				c.language = i
			}
		case strings.Contains(l, "name") || l == "id" || strings.Contains(l, "case"):
			if c.name == -1 {
				c.name = i
			}
		}
	}
	if c.audio == -1 && len(header) > 0 {
		c.audio = 0
	}
	return c
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// splitAnswers lets one cell hold several answers, one per line or
// separated by " | ".
func splitAnswers(v string) []string {
	var out []string
	for _, line := range strings.Split(v, "\n") {
		for _, part := range strings.Split(line, " | ") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Load reads the first sheet of an xlsx manifest. Relative audio paths are
// resolved against the manifest's directory; rows without audio are skipped.
func Load(path string) ([]Case, error) {
	log := logger.New().WithComponent("dataset.loader").WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	cols := detectColumns(rows[0])
	log.WithField("audio_col", cols.audio).
		WithField("transcript_col", cols.transcript).
		WithField("answer_cols", len(cols.answers)).
		Debug("detected manifest columns")

	base := filepath.Dir(path)
	var out []Case
	for i, r := range rows[1:] {
		audio := cell(r, cols.audio)
		if audio == "" {
			log.WithField("row", i+2).Debug("skipping row without audio")
			continue
		}
		if !filepath.IsAbs(audio) {
			audio = filepath.Join(base, audio)
		}
		c := Case{
			Name:       cell(r, cols.name),
			AudioPath:  audio,
			Transcript: cell(r, cols.transcript),
			Language:   cell(r, cols.language),
		}
		if c.Name == "" {
			c.Name = strings.TrimSuffix(filepath.Base(audio), filepath.Ext(audio))
		}
		for _, idx := range cols.answers {
			c.Answers = append(c.Answers, splitAnswers(cell(r, idx))...)
		}
		out = append(out, c)
	}
	log.WithField("cases", len(out)).Info("manifest loaded")
	return out, nil
}
