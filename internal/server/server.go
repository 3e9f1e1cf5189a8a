// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voice-qa-go/internal/app"
	"voice-qa-go/internal/history"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/media"
	"voice-qa-go/internal/output"
)

// Processor runs one job.
type Processor interface {
	Process(ctx context.Context, job app.Job) (app.ProcessResult, error)
}

// RunStore reads run history.
type RunStore interface {
	List(ctx context.Context, limit int, statuses ...history.Status) ([]*history.Run, error)
	Get(ctx context.Context, id string) (*history.Run, error)
}

// Server holds the HTTP handlers.
type Server struct {
	proc    Processor
	runs    RunStore
	timeout time.Duration
	log     *logger.Logger
}

// New builds a Server. runs may be nil when history is disabled.
func New(proc Processor, runs RunStore, timeout time.Duration, log *logger.Logger) *Server {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{proc: proc, runs: runs, timeout: timeout, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("POST /process", s.process)
	mux.HandleFunc("GET /runs", s.listRuns)
	mux.HandleFunc("GET /runs/{id}", s.getRun)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

type processRequest struct {
	AudioPath    string `json:"audio_path"`
	Language     string `json:"language"`
	OutputFormat string `json:"output_format"`
	EnhanceAudio bool   `json:"enhance_audio"`
	JobID        string `json:"job_id"`
	AudioHash    string `json:"audio_hash"`
}

// jobFromRequest accepts a JSON body or, for simple clients, query parameters.
func jobFromRequest(r *http.Request) (app.Job, error) {
	var req processRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return app.Job{}, errors.New("invalid JSON body")
		}
	} else {
		q := r.URL.Query()
		req.AudioPath = q.Get("audio_path")
		req.Language = q.Get("language")
		req.OutputFormat = q.Get("output_format")
		req.JobID = q.Get("job_id")
		req.AudioHash = q.Get("audio_hash")
		req.EnhanceAudio, _ = strconv.ParseBool(q.Get("enhance_audio"))
	}
	if strings.TrimSpace(req.AudioPath) == "" {
		return app.Job{}, errors.New("missing audio_path")
	}
	format, err := output.ParseFormat(req.OutputFormat)
	if err != nil {
		return app.Job{}, err
	}
	return app.Job{
		AudioPath: req.AudioPath,
		Language:  req.Language,
		Format:    format,
		Enhance:   req.EnhanceAudio,
		JobID:     req.JobID,
		AudioHash: req.AudioHash,
	}, nil
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "process")
	reqLog.Info("process request received")

	job, err := jobFromRequest(r)
	if err != nil {
		reqLog.WithError(err).Warn("bad request")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	reqLog = reqLog.WithField("audio_path", job.AudioPath)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	start := time.Now()
	res, err := s.proc.Process(ctx, job)
	reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		status := statusFor(err)
		reqLog.WithError(err).WithField("status", status).Warn("processor returned error")
		writeJSON(w, status, res)
		return
	}
	reqLog.WithField("outcome", res.Outcome).Info("processor finished")
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps pre-flight audio errors to 422 and everything else to 500.
func statusFor(err error) int {
	var audioErr *media.AudioError
	switch {
	case errors.As(err, &audioErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run history disabled"})
		return
	}
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	var statuses []history.Status
	if st := r.URL.Query().Get("status"); st != "" {
		statuses = append(statuses, history.Status(st))
	}
	runs, err := s.runs.List(r.Context(), limit, statuses...)
	if err != nil {
		s.log.WithRequest(r).WithError(err).Error("list runs failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run history disabled"})
		return
	}
	run, err := s.runs.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get run failed"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
