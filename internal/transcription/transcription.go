// Package transcription turns audio files into text through a speech
// recognition service.
package transcription

import (
	"context"
	"os"
	"strings"
)

// Request is one transcription call.
type Request struct {
	AudioPath string
	// Language is an ISO-639-1 hint; empty lets the service detect it.
	Language string
}

// Result is the recognised text and the language the service reported.
type Result struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// Transcriber is the speech recognition collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}

// Mock returns a fixed transcript without touching the network. It is
// selected by configuration for offline runs.
type Mock struct {
	Text     string
	Language string
}

// Transcribe returns the configured text after checking the file exists.
func (m Mock) Transcribe(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return Result{}, err
	}
	text := m.Text
	if strings.TrimSpace(text) == "" {
		text = "MOCK TRANSCRIPT: What is the capital of France? What is 2 plus 2?"
	}
	lang := req.Language
	if lang == "" {
		lang = m.Language
	}
	return Result{Text: text, Language: lang}, nil
}
