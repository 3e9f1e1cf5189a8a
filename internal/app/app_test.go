package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"voice-qa-go/internal/config"
	"voice-qa-go/internal/diarization"
	"voice-qa-go/internal/history"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/media"
	"voice-qa-go/internal/media/mediatest"
	"voice-qa-go/internal/output"
	"voice-qa-go/internal/pipeline"
	"voice-qa-go/internal/screening"
	"voice-qa-go/internal/transcription"
)

type cannedLLM map[string]string

func (c cannedLLM) Invoke(_ context.Context, prompt string, _ map[string]string) (string, error) {
	reply, ok := c[prompt]
	if !ok {
		return "", errors.New("unexpected prompt " + prompt)
	}
	return reply, nil
}

type countingTranscriber struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (c *countingTranscriber) Transcribe(_ context.Context, req transcription.Request) (transcription.Result, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return transcription.Result{Text: c.text, Language: "en"}, nil
}

type fixture struct {
	app    *App
	tr     *countingTranscriber
	runner *mediatest.Runner
	cfg    *config.Config
	audio  string
}

func newFixture(t *testing.T, codec, transcript string) fixture {
	t.Helper()
	dir := t.TempDir()
	audio := filepath.Join(dir, "lecture.wav")
	if err := os.WriteFile(audio, []byte("RIFF....WAVEfmt "), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Paths:   config.PathsConfig{OutputDir: filepath.Join(dir, "out"), CacheDir: filepath.Join(dir, "cache"), WorkDir: dir},
		Audio:   config.AudioConfig{MaxBytes: 1 << 20},
		History: config.HistoryConfig{Enabled: true, Path: filepath.Join(dir, "history.db")},
	}
	runner := mediatest.Probe(codec, "wav")
	tr := &countingTranscriber{text: transcript}
	llm := cannedLLM{
		"question_splitter": `[{"question":"What is the capital of France?"}]`,
		"answer_generator":  `[{"id":"1","answer":"Paris"}]`,
	}
	svc := Services{
		Tools:       media.NewTools(runner, "ffmpeg", "ffprobe", nil),
		LLM:         llm,
		Transcriber: tr,
		Diarizer:    diarization.Noop{},
		Screener:    &screening.Screener{},
	}
	a, closer, err := Assemble(context.Background(), cfg, svc, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = closer() })
	return fixture{app: a, tr: tr, runner: runner, cfg: cfg, audio: audio}
}

func historyRuns(t *testing.T, f fixture) []*history.Run {
	t.Helper()
	runs, err := f.app.History.(*history.Store).List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	return runs
}

func TestProcessCompleted(t *testing.T) {
	f := newFixture(t, "pcm_s16le", "What is the capital of France?")
	res, err := f.app.Process(context.Background(), Job{AudioPath: f.audio, Format: output.FormatJSON})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Outcome != pipeline.OutcomeCompleted || res.Document == nil || len(res.Document.Answers) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	want := filepath.Join(f.cfg.Paths.OutputDir, "lecture.json")
	if res.OutputPath != want {
		t.Fatalf("output path = %s", res.OutputPath)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	runs := historyRuns(t, f)
	if len(runs) != 1 || runs[0].Status != history.StatusCompleted || runs[0].AnswerCount != 1 {
		t.Fatalf("unexpected history %+v", runs)
	}
}

func TestProcessUnsupportedCodecSkipsTranscription(t *testing.T) {
	f := newFixture(t, "vorbis", "What is the capital of France?")
	res, err := f.app.Process(context.Background(), Job{AudioPath: f.audio})
	if !errors.Is(err, media.ErrUnsupportedCodec) {
		t.Fatalf("expected unsupported codec, got %v", err)
	}
	if f.tr.calls != 0 {
		t.Fatalf("transcription called %d times", f.tr.calls)
	}
	if res.OutputPath != "" || res.Error == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.runner.CallsTo("ffmpeg") != 0 {
		t.Fatal("no ffmpeg work expected after rejection")
	}
	if _, err := os.Stat(f.cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatal("no output expected")
	}
	runs := historyRuns(t, f)
	if len(runs) != 1 || runs[0].Status != history.StatusFailed {
		t.Fatalf("rejection not recorded: %+v", runs)
	}
}

func TestProcessProfanityWritesNothing(t *testing.T) {
	f := newFixture(t, "pcm_s16le", "This is bullshit. What is the capital of France?")
	res, err := f.app.Process(context.Background(), Job{AudioPath: f.audio})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != pipeline.OutcomeProfanity || res.Message == "" || res.OutputPath != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(f.cfg.Paths.OutputDir, "lecture.json")); !os.IsNotExist(err) {
		t.Fatal("profane run must not write output")
	}
}

func TestProcessJobIDBasenameAndCache(t *testing.T) {
	f := newFixture(t, "pcm_s16le", "What is the capital of France?")
	job := Job{AudioPath: f.audio, Format: output.FormatText, JobID: "eval_lecture", AudioHash: "testhash"}
	first, err := f.app.Process(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if first.Basename != "eval_lecture_testhash" || filepath.Base(first.OutputPath) != "eval_lecture_testhash.txt" {
		t.Fatalf("unexpected naming %+v", first)
	}
	second, err := f.app.Process(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if f.tr.calls != 1 || len(second.CacheHits) == 0 {
		t.Fatalf("second run should reuse the cache: calls=%d hits=%v", f.tr.calls, second.CacheHits)
	}
}
