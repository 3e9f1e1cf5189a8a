package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type entry struct {
	Transcript string `json:"transcript"`
	Language   string `json:"language"`
}

func TestPutGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var miss entry
	if ok, err := s.Get("transcriber", "talk", &miss); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Put("transcriber", "talk", entry{Transcript: "hello", Language: "en"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got entry
	ok, err := s.Get("transcriber", "talk", &got)
	if !ok || err != nil || got.Transcript != "hello" {
		t.Fatalf("ok=%v err=%v got=%+v", ok, err, got)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "talk.transcriber.json")); err != nil {
		t.Fatalf("entry file missing: %v", err)
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	s, _ := New(t.TempDir(), nil)
	if err := os.WriteFile(filepath.Join(s.Dir(), "talk.generator.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var got entry
	if ok, err := s.Get("generator", "talk", &got); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestKeysAreSanitized(t *testing.T) {
	s, _ := New(t.TempDir(), nil)
	if err := s.Put("diarizer", "../evil name", entry{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), ".._evil_name.diarizer.json")); err != nil {
		t.Fatalf("sanitized entry missing: %v", err)
	}
}

func TestConcurrentPutsLeaveValidEntry(t *testing.T) {
	s, _ := New(t.TempDir(), nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Put("transcriber", "talk", entry{Transcript: "same"})
		}()
	}
	wg.Wait()
	var got entry
	if ok, err := s.Get("transcriber", "talk", &got); !ok || err != nil || got.Transcript != "same" {
		t.Fatalf("ok=%v err=%v got=%+v", ok, err, got)
	}
}

func TestPurge(t *testing.T) {
	s, _ := New(t.TempDir(), nil)
	_ = s.Put("transcriber", "talk", entry{})
	_ = s.Put("generator", "talk", entry{})
	_ = s.Put("generator", "other", entry{})
	_ = s.Put("generator", "talk.v2", entry{})
	n, err := s.Purge("talk")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("removed %d entries, want 2", n)
	}
	var e entry
	if ok, _ := s.Get("generator", "talk", &e); ok {
		t.Fatal("purged entry still present")
	}
	if ok, _ := s.Get("generator", "other", &e); !ok {
		t.Fatal("unrelated entry removed")
	}
	if ok, _ := s.Get("generator", "talk.v2", &e); !ok {
		t.Fatal("entry of a key sharing the prefix removed")
	}
}
