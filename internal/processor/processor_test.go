package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"voice-qa-go/internal/diarization"
	"voice-qa-go/internal/extractor"
	"voice-qa-go/internal/media"
	"voice-qa-go/internal/screening"
	"voice-qa-go/internal/transcription"
	"voice-qa-go/internal/types"
)

type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string][]string
	calls   map[string]int
	inputs  []map[string]string
}

func newScriptedLLM(replies map[string][]string) *scriptedLLM {
	return &scriptedLLM{replies: replies, calls: map[string]int{}}
}

func (s *scriptedLLM) Invoke(_ context.Context, prompt string, inputs map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[prompt]++
	s.inputs = append(s.inputs, inputs)
	queue := s.replies[prompt]
	if len(queue) == 0 {
		return "", errors.New("no scripted reply for " + prompt)
	}
	s.replies[prompt] = queue[1:]
	return queue[0], nil
}

type fakeTranscriber struct {
	texts    map[string]string
	language string
	requests []transcription.Request
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req transcription.Request) (transcription.Result, error) {
	f.requests = append(f.requests, req)
	return transcription.Result{Text: f.texts[filepath.Base(req.AudioPath)], Language: f.language}, nil
}

type fakeTools struct {
	corrupt bool
	clips   [][2]float64
}

func (f *fakeTools) CheckDecodable(context.Context, string) error {
	if f.corrupt {
		return &media.AudioError{Kind: media.ErrCorruptAudio, Detail: "audio file appears corrupt"}
	}
	return nil
}

func (f *fakeTools) Clip(_ context.Context, _ string, start, end float64, out string) error {
	f.clips = append(f.clips, [2]float64{start, end})
	return os.WriteFile(out, []byte("clip"), 0o644)
}

type fakeEnhancer string

func (f fakeEnhancer) Enhance(context.Context, string, string) string { return string(f) }

func TestEnhancer(t *testing.T) {
	state := types.NewState("in.wav", "", true)
	u, _ := Enhancer{Tools: fakeEnhancer("out/in_enhanced.wav")}.Run(context.Background(), state)
	if u.EnhancedAudioFile == nil || *u.EnhancedAudioFile != "out/in_enhanced.wav" {
		t.Fatalf("unexpected update %+v", u)
	}
	u, _ = Enhancer{Tools: fakeEnhancer("in.wav")}.Run(context.Background(), state)
	if u.EnhancedAudioFile != nil {
		t.Fatal("fallback path must not be recorded as enhanced")
	}
}

type tokenlessDiarizer struct{}

func (tokenlessDiarizer) Diarize(context.Context, string) ([]types.SpeakerSegment, error) {
	return nil, diarization.ErrTokenMissing
}

func TestDiarizerMissingTokenIsWarning(t *testing.T) {
	u, err := Diarizer{Service: tokenlessDiarizer{}}.Run(context.Background(), types.NewState("a.wav", "", false))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if u.SpeakerTimestamps == nil || len(u.SpeakerTimestamps) != 0 {
		t.Fatalf("expected empty non-nil timestamps, got %#v", u.SpeakerTimestamps)
	}
}

func TestTranscriberWholeFileDetectsLanguage(t *testing.T) {
	svc := &fakeTranscriber{texts: map[string]string{"a.wav": "¿Dónde está la biblioteca? Es una pregunta de la clase."}}
	tr := Transcriber{Service: svc, Tools: &fakeTools{}}
	u, err := tr.Run(context.Background(), types.NewState("a.wav", "", false))
	if err != nil {
		t.Fatal(err)
	}
	if u.Language == nil || *u.Language != "es" {
		t.Fatalf("expected detected language es, got %v", u.Language)
	}
	if len(svc.requests) != 1 {
		t.Fatalf("expected one call, got %d", len(svc.requests))
	}
}

func TestTranscriberPerSpeakerTurns(t *testing.T) {
	svc := &fakeTranscriber{
		texts:    map[string]string{"000.wav": "Hello class.", "001.wav": "What is 2 plus 2?"},
		language: "English",
	}
	tools := &fakeTools{}
	state := types.NewState("a.wav", "", false)
	state.SpeakerTimestamps = []types.SpeakerSegment{
		{Speaker: "SPEAKER_00", Start: 0, End: 2},
		{Speaker: "SPEAKER_00", Start: 2.4, End: 4},
		{Speaker: "SPEAKER_01", Start: 5, End: 8},
	}
	u, err := Transcriber{Service: svc, Tools: tools, WorkDir: t.TempDir()}.Run(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	if len(tools.clips) != 2 || tools.clips[0] != [2]float64{0, 4} {
		t.Fatalf("turns not merged: %v", tools.clips)
	}
	if *u.Transcript != "Hello class. What is 2 plus 2?" {
		t.Fatalf("unexpected transcript %q", *u.Transcript)
	}
	if len(u.SpeakerTranscripts) != 2 || u.SpeakerTranscripts[1].Speaker != "SPEAKER_01" {
		t.Fatalf("unexpected speaker transcripts %+v", u.SpeakerTranscripts)
	}
	if *u.Language != "en" {
		t.Fatalf("reported language not normalized: %q", *u.Language)
	}
}

func TestTranscriberKeepsExplicitLanguageAndStopsOnCorruptAudio(t *testing.T) {
	svc := &fakeTranscriber{texts: map[string]string{"a.wav": "hello"}, language: "fr"}
	u, err := Transcriber{Service: svc, Tools: &fakeTools{}}.Run(context.Background(), types.NewState("a.wav", "en", false))
	if err != nil || u.Language != nil {
		t.Fatalf("explicit language must not be replaced: %v %v", u.Language, err)
	}

	svc = &fakeTranscriber{}
	_, err = Transcriber{Service: svc, Tools: &fakeTools{corrupt: true}}.Run(context.Background(), types.NewState("a.wav", "", false))
	if !errors.Is(err, media.ErrCorruptAudio) {
		t.Fatalf("expected corrupt audio, got %v", err)
	}
	if len(svc.requests) != 0 {
		t.Fatal("corrupt audio must not reach the transcription service")
	}
}

func TestProfanityChecker(t *testing.T) {
	p := ProfanityChecker{Detector: &screening.Screener{}}
	state := types.NewState("a.wav", "", false)
	state.Transcript = "What the hell, this is bullshit."
	u, _ := p.Run(context.Background(), state)
	if u.ProfanityDetected == nil || !*u.ProfanityDetected {
		t.Fatal("expected profanity")
	}
}

func TestSplitterEvaluatesMath(t *testing.T) {
	llm := newScriptedLLM(map[string][]string{
		extractor.PromptQuestionSplitter: {`[{"question":"Solve x²+2x-8=0."}]`},
	})
	node := Splitter{Splitter: &extractor.Splitter{LLM: llm}}
	state := types.NewState("a.wav", "en", false)
	state.Transcript = "Can you solve x squared plus 2x minus 8 equals 0?"
	u, err := node.Run(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Questions) != 1 || !u.Questions[0].IsMath {
		t.Fatalf("unexpected questions %+v", u.Questions)
	}
	if u.MathResults == nil || u.MathResults.Solution != "x = -4, x = 2" {
		t.Fatalf("unexpected math results %+v", u.MathResults)
	}
}

func questionState() types.PipelineState {
	s := types.NewState("a.wav", "en", false)
	s.Transcript = "What is the capital of France? What is 2+2?"
	s.Questions = []types.Question{{ID: "1", Question: "What is the capital of France?"}, {ID: "2", Question: "What is 2+2?"}}
	return s
}

func TestGeneratorKeepsKnownIDsOnly(t *testing.T) {
	llm := newScriptedLLM(map[string][]string{
		PromptAnswerGenerator: {"```json\n[{\"id\":\"1\",\"answer\":\"Paris\"},{\"id\":\"9\",\"answer\":\"ghost\"},{\"id\":2,\"answer\":\"4\"}]\n```"},
	})
	u, err := Generator{LLM: llm}.Run(context.Background(), questionState())
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Answers) != 2 || u.Answers[0].Answer != "Paris" || u.Answers[1].QID != "2" || u.Answers[1].Answer != "4" {
		t.Fatalf("unexpected answers %+v", u.Answers)
	}
	if llm.calls[PromptAnswerQuestion] != 0 {
		t.Fatal("no per-question prompt expected")
	}
}

func TestGeneratorFallsBackPerQuestion(t *testing.T) {
	llm := newScriptedLLM(map[string][]string{
		PromptAnswerGenerator: {`[{"id":"1","answer":"Paris"}]`},
		PromptAnswerQuestion:  {"The answer is 4."},
	})
	u, err := Generator{LLM: llm}.Run(context.Background(), questionState())
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Answers) != 2 || u.Answers[1].Answer != "The answer is 4." {
		t.Fatalf("unexpected answers %+v", u.Answers)
	}
	last := llm.inputs[len(llm.inputs)-1]
	if last["question"] != "What is 2+2?" {
		t.Fatalf("per-question prompt got %q", last["question"])
	}
}

func TestGeneratorPropagatesLLMErrors(t *testing.T) {
	llm := newScriptedLLM(map[string][]string{})
	_, err := Generator{LLM: llm}.Run(context.Background(), questionState())
	if err == nil || !strings.Contains(err.Error(), "generate answers") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
