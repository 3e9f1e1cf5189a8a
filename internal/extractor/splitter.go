package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/textproc"
	"voice-qa-go/internal/types"
)

// PromptQuestionSplitter is the template that rephrases one context unit
// into question records.
const PromptQuestionSplitter = "question_splitter"

// Invoker runs a named prompt template against the language model.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, inputs map[string]string) (string, error)
}

// TopicDetector reports sensitive topics for one question.
type TopicDetector interface {
	SensitiveTopics(ctx context.Context, text string) []string
}

// Splitter turns a transcript into questions.
type Splitter struct {
	LLM    Invoker
	Topics TopicDetector
	Log    *logger.Logger
}

// Result is what one Split call produced.
type Result struct {
	Questions []types.Question
	// Preprocessed is the transcript as the splitter saw it.
	Preprocessed textproc.Preprocessed
	// Fallback is true when the whole transcript had to be sent as one block.
	Fallback bool
}

type unit struct {
	context string
	options []string
}

var optionRe = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^option\s+([a-h])\b[).:]?\s*(.+)$`),
	regexp.MustCompile(`(?i)^\(?([a-h])[).:]\s+(.+)$`),
}

// parseOption recognises answer choices such as "A) Paris", "(b) Rome" and
// "option c Madrid".
func parseOption(sentence string) (string, bool) {
	s := strings.TrimSpace(sentence)
	for _, re := range optionRe {
		if m := re.FindStringSubmatch(s); m != nil {
			text := strings.TrimRight(strings.TrimSpace(m[2]), ".")
			if text == "" {
				return "", false
			}
			return strings.ToUpper(m[1]) + ") " + text, true
		}
	}
	return "", false
}

// collectUnits walks the sentences, buffering context until a question closes a
// unit. Answer choices that follow a question are attached to it.
func collectUnits(sentences []string, lang string) []unit {
	var units []unit
	var buffer []string
	for i := 0; i < len(sentences); i++ {
		s := sentences[i]
		if !textproc.IsQuestion(s, lang) {
			buffer = append(buffer, s)
			continue
		}
		u := unit{context: strings.Join(append(buffer, s), " ")}
		buffer = nil
		for i+1 < len(sentences) {
			opt, ok := parseOption(sentences[i+1])
			if !ok {
				break
			}
			u.options = append(u.options, opt)
			i++
		}
		units = append(units, u)
	}
	return units
}

// Split preprocesses the transcript, groups context with each question and
// asks the model to rephrase every unit. Model output that holds no usable
// records falls back to the unit text itself. If no unit yields a question
// the whole transcript is sent once as a single block.
func (s *Splitter) Split(ctx context.Context, transcript, lang string) (Result, error) {
	log := s.Log
	if log == nil {
		log = logger.Discard()
	}
	if lang == "" {
		lang = textproc.DefaultLanguage
	}

	pre := textproc.Preprocess(transcript)
	res := Result{Preprocessed: pre}
	if strings.TrimSpace(pre.Text) == "" {
		return res, nil
	}

	var sentences []string
	var units []unit
	if textproc.Supported(lang) {
		sentences = textproc.Segment(pre.Text)
		units = collectUnits(sentences, lang)
	} else {
		log.WithField("language", lang).Info("language not supported for sentence filtering, sending transcript whole")
		sentences = []string{pre.Text}
		units = []unit{{context: pre.Text}}
	}

	next := 0
	for _, u := range units {
		qs, err := s.rephrase(ctx, u, lang, &next)
		if err != nil {
			return res, err
		}
		res.Questions = append(res.Questions, qs...)
	}

	if len(res.Questions) == 0 {
		block := unit{context: strings.Join(sentences, " ")}
		if len(units) != 1 || units[0].context != block.context {
			log.Info("no questions from context walk, sending transcript as one block")
			qs, err := s.rephrase(ctx, block, lang, &next)
			if err != nil {
				return res, err
			}
			res.Questions = qs
			res.Fallback = true
		}
	}

	for i := range res.Questions {
		res.Questions[i].IsMath = pre.MathFound
		if s.Topics != nil {
			res.Questions[i].SensitiveTopics = s.Topics.SensitiveTopics(ctx, res.Questions[i].Question)
		}
	}
	log.WithField("questions", len(res.Questions)).Info("questions extracted")
	return res, nil
}

func (s *Splitter) rephrase(ctx context.Context, u unit, lang string, next *int) ([]types.Question, error) {
	raw, err := s.LLM.Invoke(ctx, PromptQuestionSplitter, map[string]string{
		"context":  u.context,
		"language": lang,
		"options":  strings.Join(u.options, "\n"),
	})
	if err != nil {
		return nil, fmt.Errorf("rephrase question: %w", err)
	}

	records, ok := Records(raw)
	if !ok {
		*next++
		return []types.Question{{ID: strconv.Itoa(*next), Question: u.context, Options: u.options}}, nil
	}

	var out []types.Question
	for _, rec := range records {
		text := Field(rec, "question", "text")
		if text == "" {
			continue
		}
		opts := u.options
		if len(opts) == 0 {
			opts = StringList(rec, "options")
		}
		*next++
		out = append(out, types.Question{ID: strconv.Itoa(*next), Question: text, Options: opts})
	}
	return out, nil
}
