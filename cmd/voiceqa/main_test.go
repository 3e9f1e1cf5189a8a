package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voice-qa-go/internal/cache"
	"voice-qa-go/internal/history"
)

type cliEnv struct {
	configPath string
	store      *history.Store
}

func setupCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	dbPath := filepath.Join(base, "history.db")
	configPath := filepath.Join(base, "voiceqa.yaml")
	body := "history:\n  path: " + dbPath + "\npaths:\n  cache_dir: " + filepath.Join(base, "cache") + "\nlogging:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := history.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return cliEnv{configPath: configPath, store: store}
}

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestHistoryList(t *testing.T) {
	env := setupCLIEnv(t)
	ctx := context.Background()
	run, err := env.store.Start(ctx, "/audio/lecture.wav", "lecture", "", "json")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.store.Complete(ctx, run.ID, history.Finish{Outcome: "completed", QuestionCount: 2, AnswerCount: 2}); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "lecture")
	requireContains(t, out, "completed")

	out, err = runCLI(t, []string{"history", "show", run.ID}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, `"basename": "lecture"`)
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := runCLI(t, []string{"history", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestRootRejectsUnknownFormatBeforeProcessing(t *testing.T) {
	_, err := runCLI(t, []string{"missing.wav", "--output_format", "docx"}, "")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"ID", "Answer"}, [][]string{{"1", "Paris"}, {"2"}}, []columnAlignment{alignRight})
	requireContains(t, out, "Paris")
	requireContains(t, strings.ToLower(out), "answer")
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("empty headers should render nothing")
	}
}

func TestCachePurge(t *testing.T) {
	env := setupCLIEnv(t)
	store, err := cache.New(filepath.Join(filepath.Dir(env.configPath), "cache"), nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Put("transcriber", "lecture", map[string]string{"transcript": "hi"})
	_ = store.Put("generator", "lecture", map[string]string{})

	out, err := runCLI(t, []string{"cache", "purge", "lecture"}, env.configPath)
	if err != nil {
		t.Fatalf("cache purge: %v", err)
	}
	requireContains(t, out, "Purged 2 cache entries")

	out, err = runCLI(t, []string{"cache", "purge", "lecture"}, env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	requireContains(t, out, "No cache entries purged")
}
