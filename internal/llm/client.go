// Package llm talks to an OpenAI-compatible chat completions endpoint and
// renders the prompt templates the pipeline sends to it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/retry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60
)

// Config holds the endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	TimeoutSeconds int
	PromptDir      string
}

// Client is a chat completions client with named prompts.
type Client struct {
	cfg        Config
	httpClient *http.Client
	prompts    *Prompts
	policy     retry.Policy
	log        *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPrompts replaces the prompt set.
func WithPrompts(p *Prompts) Option {
	return func(c *Client) {
		if p != nil {
			c.prompts = p
		}
	}
}

// NewClient builds a client and loads its prompts.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		policy:     retry.Default(),
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prompts == nil {
		p, err := LoadPrompts(cfg.PromptDir)
		if err != nil {
			return nil, err
		}
		c.prompts = p
	}
	if c.policy.Log == nil {
		c.policy.Log = c.log
	}
	return c, nil
}

// Invoke renders the named prompt and returns the model's text reply.
func (c *Client) Invoke(ctx context.Context, prompt string, inputs map[string]string) (string, error) {
	text, err := c.prompts.Render(prompt, inputs)
	if err != nil {
		return "", err
	}
	c.log.WithField("prompt", prompt).WithField("prompt_len", len(text)).Debug("invoking llm")
	return c.Complete(ctx, text)
}

// Complete sends one user message and returns the reply content.
func (c *Client) Complete(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("llm request: api key required")
	}
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: text}},
		Temperature: c.cfg.Temperature,
	}

	var content string
	err := c.policy.Do(ctx, "llm request", func(ctx context.Context) error {
		out, err := c.sendOnce(ctx, payload)
		if err != nil {
			return err
		}
		content = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Delta   chatMessage `json:"delta"`
		Text    string      `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, e.Body)
}

func (c *Client) sendOnce(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("llm request: encode body: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("llm request: new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	c.log.WithField("http_status", resp.StatusCode).Debug("llm raw response received")

	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &httpStatusError{StatusCode: resp.StatusCode, Body: snippet(string(body))}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusRequestTimeout {
			return "", retry.Permanent(statusErr)
		}
		return "", statusErr
	}

	content, err := contentFromChoices(body)
	if err != nil {
		return "", err
	}
	return content, nil
}

// contentFromChoices reads choices[0].message.content, tolerating providers
// that answer with the streaming or legacy completion shape.
func contentFromChoices(body []byte) (string, error) {
	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil && completion.Error.Message != "" {
		return "", fmt.Errorf("llm request: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("llm request: empty choices")
	}
	for _, choice := range completion.Choices {
		for _, v := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if s := strings.TrimSpace(v); s != "" {
				return s, nil
			}
		}
	}
	return "", errors.New("llm request: empty content")
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	const limit = 300
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
