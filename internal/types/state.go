// internal/types/state.go
package types

// PipelineState is the single record threaded through every stage of a run.
// Stages never mutate it directly; they return an Update that the
// orchestrator merges with Apply.
type PipelineState struct {
	AudioFile          string              `json:"audio_file"`
	EnhancedAudioFile  string              `json:"enhanced_audio_file,omitempty"`
	EnhanceAudio       bool                `json:"enhance_audio,omitempty"`
	Language           string              `json:"language,omitempty"`
	SpeakerTimestamps  []SpeakerSegment    `json:"speaker_timestamps,omitempty"`
	SpeakerTranscripts []SpeakerTranscript `json:"speaker_transcripts,omitempty"`
	Transcript         string              `json:"transcript"`
	ProfanityDetected  bool                `json:"profanity_detected,omitempty"`
	Questions          []Question          `json:"questions"`
	Answers            []Answer            `json:"answers"`
	MathResults        *MathResults        `json:"math_results,omitempty"`
}

// Update carries the fields one stage adds or changes. Nil fields are left
// untouched by Apply. SpeakerTimestamps keeps null and [] apart so a cached
// "no speakers" result survives a round trip.
type Update struct {
	EnhancedAudioFile  *string             `json:"enhanced_audio_file,omitempty"`
	Language           *string             `json:"language,omitempty"`
	SpeakerTimestamps  []SpeakerSegment    `json:"speaker_timestamps"`
	SpeakerTranscripts []SpeakerTranscript `json:"speaker_transcripts,omitempty"`
	Transcript         *string             `json:"transcript,omitempty"`
	ProfanityDetected  *bool               `json:"profanity_detected,omitempty"`
	Questions          []Question          `json:"questions,omitempty"`
	Answers            []Answer            `json:"answers,omitempty"`
	MathResults        *MathResults        `json:"math_results,omitempty"`
}

// NewState builds the entry state for one run.
func NewState(audioFile, language string, enhance bool) PipelineState {
	return PipelineState{AudioFile: audioFile, Language: language, EnhanceAudio: enhance}
}

// AudioSource returns the enhanced file when one exists.
func (s PipelineState) AudioSource() string {
	if s.EnhancedAudioFile != "" {
		return s.EnhancedAudioFile
	}
	return s.AudioFile
}

// Apply merges u into s.
//
// EnhancedAudioFile and Language are write-once, ProfanityDetected never
// goes back to false, and Questions/Answers only grow. Questions whose ID is
// already present are dropped so an assigned ID keeps its text.
func (s *PipelineState) Apply(u Update) {
	if u.EnhancedAudioFile != nil && s.EnhancedAudioFile == "" {
		s.EnhancedAudioFile = *u.EnhancedAudioFile
	}
	if u.Language != nil && s.Language == "" {
		s.Language = *u.Language
	}
	if u.SpeakerTimestamps != nil && s.SpeakerTimestamps == nil {
		s.SpeakerTimestamps = append([]SpeakerSegment(nil), u.SpeakerTimestamps...)
	}
	if u.SpeakerTranscripts != nil {
		s.SpeakerTranscripts = append(s.SpeakerTranscripts, u.SpeakerTranscripts...)
	}
	if u.Transcript != nil {
		s.Transcript = *u.Transcript
	}
	if u.ProfanityDetected != nil && *u.ProfanityDetected {
		s.ProfanityDetected = true
	}
	if len(u.Questions) > 0 {
		seen := make(map[string]struct{}, len(s.Questions))
		for _, q := range s.Questions {
			seen[q.ID] = struct{}{}
		}
		for _, q := range u.Questions {
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			s.Questions = append(s.Questions, q)
		}
	}
	if len(u.Answers) > 0 {
		s.Answers = append(s.Answers, u.Answers...)
	}
	if u.MathResults != nil && s.MathResults == nil {
		s.MathResults = u.MathResults
	}
}

// QuestionByID looks up a question produced earlier in the run.
func (s PipelineState) QuestionByID(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// StringPtr and BoolPtr build Update fields inline.
func StringPtr(v string) *string { return &v }

func BoolPtr(v bool) *bool { return &v }
