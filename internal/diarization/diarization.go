// Package diarization finds who spoke when in an audio file.
package diarization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/retry"
	"voice-qa-go/internal/types"
)

// ErrTokenMissing is returned when diarization runs without an access token.
var ErrTokenMissing = errors.New("diarization: HF_TOKEN not set")

// Diarizer returns speaker turns for one audio file.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]types.SpeakerSegment, error)
}

// Noop reports no speaker turns.
type Noop struct{}

func (Noop) Diarize(context.Context, string) ([]types.SpeakerSegment, error) { return nil, nil }

// Config holds the diarization endpoint settings.
type Config struct {
	Endpoint       string
	Token          string
	TimeoutSeconds int
}

// Client posts audio to a pyannote-compatible inference endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     retry.Policy
	log        *logger.Logger
}

// NewClient builds a Client. A zero policy means retry.Default.
func NewClient(cfg Config, policy retry.Policy, log *logger.Logger) *Client {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 300
	}
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}
	if log == nil {
		log = logger.Discard()
	}
	if policy.Log == nil {
		policy.Log = log
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		policy:     policy,
		log:        log.WithComponent("diarization"),
	}
}

type segmentJSON struct {
	Speaker string  `json:"speaker"`
	Label   string  `json:"label"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Diarize uploads the file and returns speaker turns sorted by start time.
func (c *Client) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerSegment, error) {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return nil, ErrTokenMissing
	}
	if strings.TrimSpace(c.cfg.Endpoint) == "" {
		return nil, errors.New("diarization: endpoint not configured")
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	var body []byte
	err = c.policy.Do(ctx, "diarize", func(ctx context.Context) error {
		out, err := c.send(ctx, audioPath, audio)
		if err != nil {
			return err
		}
		body = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	segments, err := decodeSegments(body)
	if err != nil {
		return nil, err
	}
	c.log.WithField("segments", len(segments)).Info("diarization complete")
	return segments, nil
}

func (c *Client) send(ctx context.Context, audioPath string, audio []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(audio))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", contentType(audioPath))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("diarization read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("diarization failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusBadRequest {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	return body, nil
}

// decodeSegments accepts either a bare array of turns or an object with a
// "segments" array.
func decodeSegments(body []byte) ([]types.SpeakerSegment, error) {
	var raw []segmentJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		var wrapped struct {
			Segments []segmentJSON `json:"segments"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decoding diarization: %w", err)
		}
		raw = wrapped.Segments
	}
	out := make([]types.SpeakerSegment, 0, len(raw))
	for _, s := range raw {
		speaker := s.Speaker
		if speaker == "" {
			speaker = s.Label
		}
		if s.End <= s.Start {
			continue
		}
		out = append(out, types.SpeakerSegment{Speaker: speaker, Start: s.Start, End: s.End})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
