package history

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID            string    `json:"id"`
	AudioFile     string    `json:"audio_file"`
	Basename      string    `json:"basename"`
	JobID         string    `json:"job_id,omitempty"`
	Language      string    `json:"language,omitempty"`
	OutputFormat  string    `json:"output_format,omitempty"`
	OutputPath    string    `json:"output_path,omitempty"`
	Status        Status    `json:"status"`
	Outcome       string    `json:"outcome,omitempty"`
	Trace         []string  `json:"trace,omitempty"`
	QuestionCount int       `json:"question_count"`
	AnswerCount   int       `json:"answer_count"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
	CompletedAt   time.Time `json:"completed_at,omitempty"`
}

// Finish describes how a run ended.
type Finish struct {
	Outcome       string
	Language      string
	OutputPath    string
	Trace         []string
	QuestionCount int
	AnswerCount   int
	DurationMs    int64
	Err           error
}
