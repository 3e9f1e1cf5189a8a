package types

import "testing"

func TestApplyWriteOnceFields(t *testing.T) {
	s := NewState("in.wav", "", false)
	s.Apply(Update{Language: StringPtr("en"), EnhancedAudioFile: StringPtr("out.wav")})
	s.Apply(Update{Language: StringPtr("fr"), EnhancedAudioFile: StringPtr("other.wav")})

	if s.Language != "en" {
		t.Fatalf("language overwritten: %q", s.Language)
	}
	if s.EnhancedAudioFile != "out.wav" {
		t.Fatalf("enhanced file overwritten: %q", s.EnhancedAudioFile)
	}
	if s.AudioSource() != "out.wav" {
		t.Fatalf("unexpected audio source: %q", s.AudioSource())
	}
}

func TestApplyKeepsExplicitLanguage(t *testing.T) {
	s := NewState("in.wav", "de", false)
	s.Apply(Update{Language: StringPtr("en")})
	if s.Language != "de" {
		t.Fatalf("explicit language overwritten: %q", s.Language)
	}
}

func TestApplyProfanityIsTerminal(t *testing.T) {
	s := NewState("in.wav", "", false)
	s.Apply(Update{ProfanityDetected: BoolPtr(true)})
	s.Apply(Update{ProfanityDetected: BoolPtr(false)})
	if !s.ProfanityDetected {
		t.Fatal("profanity flag was reset")
	}
}

func TestApplyQuestionsAppendOnly(t *testing.T) {
	s := NewState("in.wav", "", false)
	s.Apply(Update{Questions: []Question{{ID: "1", Question: "first"}}})
	s.Apply(Update{Questions: []Question{{ID: "1", Question: "rewritten"}, {ID: "2", Question: "second"}}})

	if len(s.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(s.Questions))
	}
	if q, _ := s.QuestionByID("1"); q.Question != "first" {
		t.Fatalf("question 1 mutated: %q", q.Question)
	}
	s.Apply(Update{Answers: []Answer{{QID: "1", Answer: "a"}}})
	s.Apply(Update{Answers: []Answer{{QID: "2", Answer: "b"}}})
	if len(s.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(s.Answers))
	}
}

func TestAudioSourceDefaultsToOriginal(t *testing.T) {
	s := NewState("in.wav", "", true)
	if s.AudioSource() != "in.wav" {
		t.Fatalf("unexpected audio source: %q", s.AudioSource())
	}
}
