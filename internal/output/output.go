// Package output renders a finished run as JSON, plain text or PDF.
package output

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"voice-qa-go/internal/types"
)

// Format is an output file type.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts json, text (or txt) and pdf.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want json, text or pdf)", s)
}

// Ext is the file extension written for f.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Document is the persisted result.
type Document struct {
	Transcript         string                    `json:"transcript"`
	Questions          []types.Question          `json:"questions"`
	Answers            []types.Answer            `json:"answers"`
	MathResults        *types.MathResults        `json:"math_results,omitempty"`
	Language           string                    `json:"language,omitempty"`
	SpeakerTranscripts []types.SpeakerTranscript `json:"speaker_transcripts,omitempty"`
}

// FromState builds the document from a completed run.
func FromState(s types.PipelineState) Document {
	d := Document{
		Transcript:         s.Transcript,
		Questions:          s.Questions,
		Answers:            s.Answers,
		Language:           s.Language,
		SpeakerTranscripts: s.SpeakerTranscripts,
	}
	if !s.MathResults.Empty() {
		d.MathResults = s.MathResults
	}
	if d.Questions == nil {
		d.Questions = []types.Question{}
	}
	if d.Answers == nil {
		d.Answers = []types.Answer{}
	}
	return d
}

// Render writes d to w in format f.
func Render(w io.Writer, f Format, d Document) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, d)
	case FormatText:
		return WriteText(w, d)
	case FormatPDF:
		return WritePDF(w, d)
	}
	return fmt.Errorf("unsupported output format %q", f)
}

// Save renders d to <dir>/<basename>.<ext>. The file appears only once it is
// complete.
func Save(dir, basename string, f Format, d Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, basename+"."+f.Ext())
	tmp, err := os.CreateTemp(dir, basename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	if err := Render(tmp, f, d); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("render %s: %w", f, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize output: %w", err)
	}
	return path, nil
}

// Basename names a run's output and cache entries: the audio file stem, or
// "<jobID>_<hash>" when a job id is given. An empty audioHash is replaced by
// the first 12 hex digits of the file's SHA-256.
func Basename(audioPath, jobID, audioHash string) (string, error) {
	if strings.TrimSpace(jobID) == "" {
		return strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath)), nil
	}
	if audioHash == "" {
		h, err := FileHash(audioPath)
		if err != nil {
			return "", err
		}
		audioHash = h[:12]
	}
	return jobID + "_" + audioHash, nil
}

// FileHash returns the hex SHA-256 of a file.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash audio: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash audio: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
