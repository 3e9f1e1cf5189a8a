package screening

import (
	"context"

	"voice-qa-go/internal/logger"
)

// TopicClassifier is the zero-shot collaborator behind Screener.
type TopicClassifier interface {
	DetectSensitiveTopics(ctx context.Context, text string, threshold float64) ([]string, error)
}

// Screener combines the profanity gate with sensitive-topic annotation.
// Topics never stop a run; a classifier failure is logged and read as no
// topics.
type Screener struct {
	Profanity  *ProfanityFilter
	Classifier TopicClassifier
	Threshold  float64
	Log        *logger.Logger
}

// ContainsProfanity applies the configured filter, or the built-in list.
func (s *Screener) ContainsProfanity(text string) bool {
	if s == nil || s.Profanity == nil {
		return ContainsProfanity(text)
	}
	return s.Profanity.Contains(text)
}

// SensitiveTopics annotates one question.
func (s *Screener) SensitiveTopics(ctx context.Context, text string) []string {
	if s == nil || s.Classifier == nil {
		return nil
	}
	topics, err := s.Classifier.DetectSensitiveTopics(ctx, text, s.Threshold)
	if err != nil {
		log := s.Log
		if log == nil {
			log = logger.Discard()
		}
		log.WithError(err).Warn("sensitive topic detection failed, continuing without topics")
		return nil
	}
	return topics
}
