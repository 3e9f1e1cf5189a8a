package types

type SpeakerSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

type SpeakerTranscript struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

type Question struct {
	ID              string   `json:"id"`
	Question        string   `json:"question"`
	Options         []string `json:"options,omitempty"`
	SensitiveTopics []string `json:"sensitive_topics,omitempty"`
	IsMath          bool     `json:"is_math,omitempty"`
}

type Answer struct {
	QID      string `json:"qid"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

type MathResults struct {
	Expression string `json:"expression,omitempty"`
	Solution   string `json:"solution,omitempty"`
	Derivative string `json:"derivative,omitempty"`
	Integral   string `json:"integral,omitempty"`
}

// Empty reports whether no result was computed.
func (m *MathResults) Empty() bool {
	return m == nil || (m.Solution == "" && m.Derivative == "" && m.Integral == "")
}
