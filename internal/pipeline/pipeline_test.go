package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"voice-qa-go/internal/cache"
	"voice-qa-go/internal/processor"
	"voice-qa-go/internal/types"
)

type counter map[string]int

func stub(c counter, stage string, u types.Update) processor.Node {
	return processor.Func{Stage: stage, Fn: func(context.Context, types.PipelineState) (types.Update, error) {
		c[stage]++
		return u, nil
	}}
}

func nodes(c counter, transcript string, profane bool, questions []types.Question) []processor.Node {
	return []processor.Node{
		stub(c, processor.StageEnhancer, types.Update{EnhancedAudioFile: types.StringPtr("in_enhanced.wav")}),
		stub(c, processor.StageDiarizer, types.Update{SpeakerTimestamps: []types.SpeakerSegment{}}),
		stub(c, processor.StageTranscriber, types.Update{Transcript: types.StringPtr(transcript), Language: types.StringPtr("en")}),
		stub(c, processor.StageProfanity, types.Update{ProfanityDetected: types.BoolPtr(profane)}),
		stub(c, processor.StageSplitter, types.Update{Questions: questions}),
		stub(c, processor.StageGenerator, types.Update{Answers: []types.Answer{{QID: "1", Answer: "Paris"}}}),
	}
}

var oneQuestion = []types.Question{{ID: "1", Question: "What is the capital of France?"}}

func TestRunCompleted(t *testing.T) {
	c := counter{}
	p, err := New(nodes(c, "What is the capital of France?", false, oneQuestion))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"diarizer", "transcriber", "profanity_checker", "splitter", "generator"}
	if !reflect.DeepEqual(res.Trace, want) {
		t.Fatalf("trace = %v", res.Trace)
	}
	if res.Outcome != OutcomeCompleted || len(res.State.Answers) != 1 || res.State.Language != "en" {
		t.Fatalf("unexpected result %+v", res)
	}
	if c[processor.StageEnhancer] != 0 {
		t.Fatal("enhancer ran without being requested")
	}
}

func TestRunEnhanceEntry(t *testing.T) {
	c := counter{}
	p, _ := New(nodes(c, "q?", false, oneQuestion))
	res, err := p.Run(context.Background(), types.NewState("in.wav", "", true), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Trace[0] != processor.StageEnhancer || res.State.AudioSource() != "in_enhanced.wav" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunProfanityStopsBeforeSplitter(t *testing.T) {
	c := counter{}
	p, _ := New(nodes(c, "bad words", true, oneQuestion))
	res, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeProfanity {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if c[processor.StageSplitter] != 0 || c[processor.StageGenerator] != 0 {
		t.Fatalf("splitter/generator invoked: %v", c)
	}
	if len(res.State.Questions) != 0 || len(res.State.Answers) != 0 {
		t.Fatalf("questions/answers must stay empty: %+v", res.State)
	}
	if res.Trace[len(res.Trace)-1] != processor.StageProfanity {
		t.Fatalf("trace = %v", res.Trace)
	}
}

func TestRunNoQuestionsSkipsGenerator(t *testing.T) {
	c := counter{}
	p, _ := New(nodes(c, "Just a statement.", false, nil))
	res, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeNoQuestions || c[processor.StageGenerator] != 0 || len(res.State.Answers) != 0 {
		t.Fatalf("outcome=%s counts=%v", res.Outcome, c)
	}
	if res.Outcome.Message() == "" {
		t.Fatal("early return needs a message")
	}
}

func TestRunCacheHitSkipsTranscription(t *testing.T) {
	store, err := cache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := counter{}
	p, _ := New(nodes(c, "What is the capital of France?", false, oneQuestion), WithCache(store))

	first, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "in")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "in")
	if err != nil {
		t.Fatal(err)
	}
	for _, stage := range DefaultCachedStages {
		if c[stage] != 1 {
			t.Fatalf("cached stage %s re-ran: %v", stage, c)
		}
	}
	if c[processor.StageProfanity] != 2 {
		t.Fatalf("uncached stage should run each time: %v", c)
	}
	if !reflect.DeepEqual(first.State, second.State) {
		t.Fatalf("cached run differs:\n%+v\n%+v", first.State, second.State)
	}
	if len(second.CacheHits) != 4 {
		t.Fatalf("cache hits = %v", second.CacheHits)
	}
}

// shifting returns nodes whose splitter yields a different question set on
// every call and whose generator answers whatever questions it is given.
func shifting(c counter, sets ...[]types.Question) []processor.Node {
	ns := nodes(c, "What is the capital of France?", false, nil)
	ns[4] = processor.Func{Stage: processor.StageSplitter, Fn: func(context.Context, types.PipelineState) (types.Update, error) {
		qs := sets[c[processor.StageSplitter]%len(sets)]
		c[processor.StageSplitter]++
		return types.Update{Questions: qs}, nil
	}}
	ns[5] = processor.Func{Stage: processor.StageGenerator, Fn: func(_ context.Context, s types.PipelineState) (types.Update, error) {
		c[processor.StageGenerator]++
		answers := make([]types.Answer, 0, len(s.Questions))
		for _, q := range s.Questions {
			answers = append(answers, types.Answer{QID: q.ID, Question: q.Question, Answer: "answer to " + q.Question})
		}
		return types.Update{Answers: answers}, nil
	}}
	return ns
}

var twoQuestions = []types.Question{{ID: "1", Question: "Capital of France?"}, {ID: "2", Question: "Capital of Spain?"}}

func assertAnswersJoinQuestions(t *testing.T, s types.PipelineState) {
	t.Helper()
	if len(s.Answers) != len(s.Questions) {
		t.Fatalf("answers %d vs questions %d: %+v", len(s.Answers), len(s.Questions), s.Answers)
	}
	for _, a := range s.Answers {
		q, ok := s.QuestionByID(a.QID)
		if !ok || q.Question != a.Question {
			t.Fatalf("answer %+v does not match a question in %+v", a, s.Questions)
		}
	}
}

func TestRunCachedAnswersMatchCachedQuestions(t *testing.T) {
	store, _ := cache.New(t.TempDir(), nil)
	c := counter{}
	p, _ := New(shifting(c, oneQuestion, twoQuestions), WithCache(store))

	first, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "in")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "in")
	if err != nil {
		t.Fatal(err)
	}
	assertAnswersJoinQuestions(t, second.State)
	if !reflect.DeepEqual(first.State.Questions, second.State.Questions) {
		t.Fatalf("questions not replayed: %+v", second.State.Questions)
	}
	if c[processor.StageSplitter] != 1 || c[processor.StageGenerator] != 1 {
		t.Fatalf("counts = %v", c)
	}
}

func TestRunStaleCachedAnswersAreRecomputed(t *testing.T) {
	store, _ := cache.New(t.TempDir(), nil)
	c := counter{}
	stages := []string{processor.StageDiarizer, processor.StageTranscriber, processor.StageGenerator}
	p, _ := New(shifting(c, oneQuestion, twoQuestions), WithCache(store, stages...))

	if _, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "in"); err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "in")
	if err != nil {
		t.Fatal(err)
	}
	assertAnswersJoinQuestions(t, second.State)
	if len(second.State.Questions) != 2 || c[processor.StageGenerator] != 2 {
		t.Fatalf("stale answers served: counts=%v answers=%+v", c, second.State.Answers)
	}
	for _, hit := range second.CacheHits {
		if hit == processor.StageGenerator {
			t.Fatalf("generator reported as cache hit: %v", second.CacheHits)
		}
	}
}

func TestRunStageErrorStops(t *testing.T) {
	boom := errors.New("service down")
	c := counter{}
	ns := nodes(c, "q?", false, oneQuestion)
	ns[2] = processor.Func{Stage: processor.StageTranscriber, Fn: func(context.Context, types.PipelineState) (types.Update, error) {
		return types.Update{}, boom
	}}
	p, _ := New(ns)
	res, err := p.Run(context.Background(), types.NewState("in.wav", "", false), "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if c[processor.StageProfanity] != 0 {
		t.Fatal("pipeline continued after failure")
	}
	if res.Trace[len(res.Trace)-1] != processor.StageTranscriber {
		t.Fatalf("trace = %v", res.Trace)
	}
}

func TestNewRequiresEveryNode(t *testing.T) {
	c := counter{}
	if _, err := New(nodes(c, "", false, nil)[1:]); err == nil {
		t.Fatal("expected missing enhancer error")
	}
}
