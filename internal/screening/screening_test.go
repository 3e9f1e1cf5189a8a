package screening

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"voice-qa-go/internal/retry"
)

func TestContainsProfanity(t *testing.T) {
	cases := map[string]bool{
		"What the fuck is this?":           true,
		"This is SHIT.":                    true,
		"you son  of a bitch":              true,
		"The shitake mushrooms are great.": false,
		"Scunthorpe is a town in England.": false,
		"What is the capital of France?":   false,
		"":                                 false,
	}
	for text, want := range cases {
		if got := ContainsProfanity(text); got != want {
			t.Errorf("ContainsProfanity(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestProfanityFilterExtraWords(t *testing.T) {
	f := NewProfanityFilter("Frak", "  ")
	if !f.Contains("oh frak, not again") {
		t.Fatal("extra word not matched")
	}
	if got := f.Matches("Shit. shit, FRAK"); !reflect.DeepEqual(got, []string{"shit", "frak"}) {
		t.Fatalf("unexpected matches %v", got)
	}
}

func TestClassifierThreshold(t *testing.T) {
	var got zeroShotRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"labels":["violence","drugs","abuse"],"scores":[0.91,0.7,0.2]}`))
	}))
	defer srv.Close()

	c := &Classifier{Endpoint: srv.URL, Policy: retry.Policy{MaxAttempts: 1}}
	topics, err := c.DetectSensitiveTopics(context.Background(), "how do I hurt someone", 0)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !reflect.DeepEqual(topics, []string{"violence", "drugs"}) {
		t.Fatalf("unexpected topics %v", topics)
	}
	if !got.Parameters.MultiLabel || len(got.Parameters.CandidateLabels) != len(SensitiveTopics) {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestClassifierWrappedArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"labels":["suicide"],"scores":[0.8]}]`))
	}))
	defer srv.Close()

	c := &Classifier{Endpoint: srv.URL, Policy: retry.Policy{MaxAttempts: 1}}
	topics, err := c.DetectSensitiveTopics(context.Background(), "text", 0.5)
	if err != nil || len(topics) != 1 || topics[0] != "suicide" {
		t.Fatalf("topics=%v err=%v", topics, err)
	}
}

type failingClassifier struct{}

func (failingClassifier) DetectSensitiveTopics(context.Context, string, float64) ([]string, error) {
	return nil, errors.New("model loading")
}

func TestScreenerClassifierFailureIsNotFatal(t *testing.T) {
	s := &Screener{Classifier: failingClassifier{}}
	if topics := s.SensitiveTopics(context.Background(), "anything"); topics != nil {
		t.Fatalf("expected no topics, got %v", topics)
	}
	if !s.ContainsProfanity("bullshit") {
		t.Fatal("default filter not used")
	}
}
