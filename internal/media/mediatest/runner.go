// Package mediatest provides a scripted media.Runner for tests.
package mediatest

import (
	"context"
	"strings"
	"sync"

	"voice-qa-go/internal/media"
)

// Call records one command invocation.
type Call struct {
	Name string
	Args []string
}

// Runner answers commands with Func and records every call. A nil Func
// succeeds with empty output.
type Runner struct {
	Func func(name string, args []string) (media.CommandResult, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements media.Runner.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (media.CommandResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return media.CommandResult{ExitCode: -1}, err
	}
	if r.Func == nil {
		return media.CommandResult{}, nil
	}
	return r.Func(name, args)
}

// Calls returns a copy of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo counts invocations of one binary.
func (r *Runner) CallsTo(name string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Probe answers ffprobe with the given codec and format, and every other
// command with success.
func Probe(codec, format string) *Runner {
	return &Runner{Func: func(name string, args []string) (media.CommandResult, error) {
		if strings.Contains(name, "ffprobe") {
			return media.CommandResult{Stdout: codec + "\n" + format + "\n"}, nil
		}
		return media.CommandResult{}, nil
	}}
}
