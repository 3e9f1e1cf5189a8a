package screening

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

	"voice-qa-go/internal/retry"
)

// DefaultThreshold is the minimum zero-shot score for a topic to be reported.
const DefaultThreshold = 0.7

// SensitiveTopics are the candidate labels sent to the classifier.
var SensitiveTopics = []string{
	"self-harm", "suicide", "violence", "abuse", "harassment",
	"hate speech", "sexual content", "drugs", "addiction",
}

const defaultClassifierURL = "https://api-inference.huggingface.co/models/facebook/bart-large-mnli"

// Classifier calls a zero-shot classification endpoint using the Hugging
// Face inference contract.
type Classifier struct {
	Endpoint   string
	Token      string
	Labels     []string
	HTTPClient *http.Client
	Policy     retry.Policy
}

type zeroShotRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		CandidateLabels []string `json:"candidate_labels"`
		MultiLabel      bool     `json:"multi_label"`
	} `json:"parameters"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
	Error  string    `json:"error"`
}

// DetectSensitiveTopics returns the labels whose score is at least threshold,
// in the order the classifier ranked them.
func (c *Classifier) DetectSensitiveTopics(ctx context.Context, text string, threshold float64) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	labels := c.Labels
	if len(labels) == 0 {
		labels = SensitiveTopics
	}
	var req zeroShotRequest
	req.Inputs = text
	req.Parameters.CandidateLabels = labels
	req.Parameters.MultiLabel = true
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("zero-shot: encode: %w", err)
	}

	var resp zeroShotResponse
	policy := c.Policy
	if policy.MaxAttempts == 0 {
		policy = retry.Default()
	}
	err = policy.Do(ctx, "zero-shot classify", func(ctx context.Context) error {
		out, err := c.send(ctx, payload)
		if err != nil {
			return err
		}
		resp = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Labels) != len(resp.Scores) {
		return nil, errors.New("zero-shot: labels and scores differ in length")
	}

	var topics []string
	for i, label := range resp.Labels {
		if resp.Scores[i] >= threshold {
			topics = append(topics, label)
		}
	}
	return topics, nil
}

func (c *Classifier) send(ctx context.Context, payload []byte) (zeroShotResponse, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = defaultClassifierURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return zeroShotResponse{}, retry.Permanent(fmt.Errorf("zero-shot: new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return zeroShotResponse{}, fmt.Errorf("zero-shot: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zeroShotResponse{}, fmt.Errorf("zero-shot: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("zero-shot: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return zeroShotResponse{}, retry.Permanent(err)
		}
		return zeroShotResponse{}, err
	}
	var out zeroShotResponse
	if err := json.Unmarshal(body, &out); err != nil {
		// Some deployments wrap the result in a single-element array.
		var arr []zeroShotResponse
		if err2 := json.Unmarshal(body, &arr); err2 != nil || len(arr) == 0 {
			return zeroShotResponse{}, fmt.Errorf("zero-shot: decode: %w", err)
		}
		out = arr[0]
	}
	if out.Error != "" {
		return zeroShotResponse{}, fmt.Errorf("zero-shot: %s", out.Error)
	}
	return out, nil
}
