package diarization

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"voice-qa-go/internal/retry"
)

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiarizeParsesSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf_x" {
			t.Errorf("missing token")
		}
		if r.Header.Get("Content-Type") != "audio/mpeg" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"segments":[{"label":"SPEAKER_01","start":4.0,"end":6.5},{"speaker":"SPEAKER_00","start":0.0,"end":3.2},{"speaker":"SPEAKER_00","start":7,"end":7}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Token: "hf_x"}, retry.Policy{MaxAttempts: 1}, nil)
	segs, err := c.Diarize(context.Background(), audioFile(t))
	if err != nil {
		t.Fatalf("diarize: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %+v", segs)
	}
	if segs[0].Speaker != "SPEAKER_00" || segs[1].Speaker != "SPEAKER_01" {
		t.Fatalf("segments not sorted: %+v", segs)
	}
}

func TestDiarizeBareArray(t *testing.T) {
	segs, err := decodeSegments([]byte(`[{"speaker":"A","start":1,"end":2}]`))
	if err != nil || len(segs) != 1 || segs[0].Speaker != "A" {
		t.Fatalf("segs=%+v err=%v", segs, err)
	}
	if _, err := decodeSegments([]byte(`oops`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDiarizeRequiresToken(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://example.invalid"}, retry.Policy{MaxAttempts: 1}, nil)
	if _, err := c.Diarize(context.Background(), audioFile(t)); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestDiarizeUnauthorizedIsPermanent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "gated model", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Token: "t"}, retry.Policy{MaxAttempts: 3}, nil)
	if _, err := c.Diarize(context.Background(), audioFile(t)); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestNoop(t *testing.T) {
	segs, err := Noop{}.Diarize(context.Background(), "x")
	if err != nil || segs != nil {
		t.Fatalf("segs=%v err=%v", segs, err)
	}
}
