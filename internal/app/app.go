// Package app runs one audio file end to end: validation, the stage
// pipeline, output rendering and run history.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voice-qa-go/internal/history"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/output"
	"voice-qa-go/internal/pipeline"
	"voice-qa-go/internal/types"
)

// Validator rejects audio the pipeline cannot process.
type Validator interface {
	Check(ctx context.Context, path string) error
}

// Runner drives the stage machine.
type Runner interface {
	Run(ctx context.Context, state types.PipelineState, key string) (pipeline.Result, error)
}

// Recorder stores run history. It is optional.
type Recorder interface {
	Start(ctx context.Context, audioFile, basename, jobID, format string) (*history.Run, error)
	Complete(ctx context.Context, id string, f history.Finish) error
}

// Job is one processing request.
type Job struct {
	AudioPath string        `json:"audio_path"`
	Language  string        `json:"language,omitempty"`
	Format    output.Format `json:"output_format,omitempty"`
	Enhance   bool          `json:"enhance_audio,omitempty"`
	JobID     string        `json:"job_id,omitempty"`
	AudioHash string        `json:"audio_hash,omitempty"`
}

// ProcessResult describes a finished job.
type ProcessResult struct {
	RunID      string              `json:"run_id"`
	Basename   string              `json:"basename"`
	Outcome    pipeline.Outcome    `json:"outcome,omitempty"`
	Message    string              `json:"message,omitempty"`
	OutputPath string              `json:"output_path,omitempty"`
	Document   *output.Document    `json:"result,omitempty"`
	Trace      []string            `json:"trace,omitempty"`
	CacheHits  []string            `json:"cache_hits,omitempty"`
	State      types.PipelineState `json:"-"`
	DurationMs int64               `json:"duration_ms"`
	Error      string              `json:"error,omitempty"`
}

// App wires the job steps together.
type App struct {
	Gate      Validator
	Pipeline  Runner
	History   Recorder
	OutputDir string
	Log       *logger.Logger
}

// Process validates the audio, runs the pipeline and, for completed runs,
// writes the output file. Early returns (profanity, no questions) produce a
// message and no file. Validation errors are returned unwrapped so callers
// can print them verbatim.
func (a *App) Process(ctx context.Context, job Job) (ProcessResult, error) {
	start := time.Now()
	res := ProcessResult{RunID: uuid.NewString()}
	log := &logger.Logger{Entry: a.logger().WithRun(res.RunID).WithField("audio_file", job.AudioPath)}
	if job.Format == "" {
		job.Format = output.FormatJSON
	}

	basename, err := output.Basename(job.AudioPath, job.JobID, job.AudioHash)
	if err != nil {
		basename, _ = output.Basename(job.AudioPath, "", "")
	}
	res.Basename = basename

	runID := a.startHistory(ctx, log, job, basename)
	finish := func(f history.Finish) {
		res.DurationMs = time.Since(start).Milliseconds()
		f.DurationMs = res.DurationMs
		a.completeHistory(ctx, log, runID, f)
	}

	if err := a.Gate.Check(ctx, job.AudioPath); err != nil {
		log.WithError(err).Warn("audio rejected")
		res.Error = err.Error()
		finish(history.Finish{Err: err})
		return res, err
	}

	state := types.NewState(job.AudioPath, job.Language, job.Enhance)
	log.WithField("basename", basename).Info("pipeline starting")
	pr, err := a.Pipeline.Run(ctx, state, basename)
	res.Trace, res.CacheHits, res.State = pr.Trace, pr.CacheHits, pr.State
	if err != nil {
		log.WithError(err).Error("pipeline failed")
		res.Error = err.Error()
		finish(history.Finish{Trace: pr.Trace, Err: err})
		return res, err
	}
	res.Outcome = pr.Outcome

	f := history.Finish{
		Outcome:       string(pr.Outcome),
		Language:      pr.State.Language,
		Trace:         pr.Trace,
		QuestionCount: len(pr.State.Questions),
		AnswerCount:   len(pr.State.Answers),
	}
	if pr.Outcome != pipeline.OutcomeCompleted {
		res.Message = pr.Outcome.Message()
		log.WithField("outcome", pr.Outcome).Info(res.Message)
		finish(f)
		return res, nil
	}

	doc := output.FromState(pr.State)
	res.Document = &doc
	path, err := output.Save(a.OutputDir, basename, job.Format, doc)
	if err != nil {
		err = fmt.Errorf("write output: %w", err)
		res.Error = err.Error()
		f.Err = err
		finish(f)
		return res, err
	}
	res.OutputPath = path
	f.OutputPath = path
	finish(f)
	log.WithField("output_path", path).WithField("duration_ms", res.DurationMs).Info("job complete")
	return res, nil
}

func (a *App) logger() *logger.Logger {
	if a.Log == nil {
		return logger.Discard()
	}
	return a.Log
}

func (a *App) startHistory(ctx context.Context, log *logger.Logger, job Job, basename string) string {
	if a.History == nil {
		return ""
	}
	run, err := a.History.Start(ctx, job.AudioPath, basename, job.JobID, string(job.Format))
	if err != nil {
		log.WithError(err).Warn("history start failed")
		return ""
	}
	return run.ID
}

func (a *App) completeHistory(ctx context.Context, log *logger.Logger, id string, f history.Finish) {
	if a.History == nil || id == "" {
		return
	}
	// Record the run even when the job's context was cancelled.
	if err := a.History.Complete(context.WithoutCancel(ctx), id, f); err != nil {
		log.WithError(err).Warn("history update failed")
	}
}
