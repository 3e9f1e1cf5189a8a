package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/media"
	"voice-qa-go/internal/retry"
	"voice-qa-go/internal/textproc"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/audio/transcriptions"
	defaultModel    = "whisper-1"
)

// Config holds the transcription endpoint settings.
type Config struct {
	Endpoint       string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// Client calls an OpenAI-compatible /v1/audio/transcriptions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     retry.Policy
	log        *logger.Logger
}

// NewClient builds a Client. A zero policy means retry.Default.
func NewClient(cfg Config, policy retry.Policy, log *logger.Logger) *Client {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
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
	if policy.Fatal == nil {
		policy.Fatal = fatal
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		policy:     policy,
		log:        log.WithComponent("transcription"),
	}
}

// Transcribe uploads the file and returns the recognised text. The reported
// language is normalised to an ISO-639-1 code.
func (c *Client) Transcribe(ctx context.Context, req Request) (Result, error) {
	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return Result{}, fmt.Errorf("read audio: %w", err)
	}
	c.log.WithField("file", filepath.Base(req.AudioPath)).WithField("bytes", len(audio)).Info("starting transcription")

	var out Result
	err = c.policy.Do(ctx, "transcribe", func(ctx context.Context) error {
		res, err := c.send(ctx, filepath.Base(req.AudioPath), audio, req.Language)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	out.Language = textproc.NormalizeLanguage(out.Language)
	if out.Language == "" {
		out.Language = textproc.NormalizeLanguage(req.Language)
	}
	c.log.WithField("text_length", len(out.Text)).WithField("language", out.Language).Info("transcription complete")
	return out, nil
}

func (c *Client) send(ctx context.Context, name string, audio []byte, lang string) (Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return Result{}, retry.Permanent(fmt.Errorf("creating form file: %w", err))
	}
	if _, err := part.Write(audio); err != nil {
		return Result{}, retry.Permanent(fmt.Errorf("writing audio: %w", err))
	}
	_ = writer.WriteField("model", c.cfg.Model)
	if lang = textproc.NormalizeLanguage(lang); lang != "" {
		_ = writer.WriteField("language", lang)
	}
	_ = writer.WriteField("response_format", "verbose_json")
	if err := writer.Close(); err != nil {
		return Result{}, retry.Permanent(fmt.Errorf("closing form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return Result{}, retry.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, statusError(resp.StatusCode, string(respBody))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decoding transcription: %w", err)
	}
	return result, nil
}

var corruptMarkers = []string{"could not decode", "invalid file", "invalid audio", "unsupported file"}

// statusError maps a failed response onto the error taxonomy: undecodable
// uploads become corrupt audio, other client errors are permanent.
func statusError(code int, body string) error {
	err := fmt.Errorf("transcription failed (status %d): %s", code, strings.TrimSpace(body))
	if code == http.StatusBadRequest {
		lower := strings.ToLower(body)
		for _, m := range corruptMarkers {
			if strings.Contains(lower, m) {
				return &media.AudioError{Kind: media.ErrCorruptAudio, Detail: "corrupt audio: " + strings.TrimSpace(body), Err: err}
			}
		}
	}
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
		return retry.Permanent(err)
	}
	return err
}

func fatal(err error) bool {
	return media.IsValidationError(err) || retry.IsQuotaError(err)
}
