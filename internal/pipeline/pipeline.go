// Package pipeline runs the stage nodes as a finite-state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-qa-go/internal/cache"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/processor"
	"voice-qa-go/internal/types"
)

// End is the terminal state.
const End = "end"

// Outcome says how a run that did not fail ended.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeProfanity   Outcome = "profanity"
	OutcomeNoQuestions Outcome = "no_questions"
)

// Message is the text shown to the user for early returns.
func (o Outcome) Message() string {
	switch o {
	case OutcomeProfanity:
		return "Offensive language detected in the audio. Please revise the audio."
	case OutcomeNoQuestions:
		return "No valid questions found in the audio."
	default:
		return ""
	}
}

// Transition picks the next state from the state just merged.
type Transition func(types.PipelineState) string

func always(next string) Transition {
	return func(types.PipelineState) string { return next }
}

// Entry chooses the first state.
func Entry(s types.PipelineState) string {
	if s.EnhanceAudio {
		return processor.StageEnhancer
	}
	return processor.StageDiarizer
}

// Transitions is the edge table of the machine.
var Transitions = map[string]Transition{
	processor.StageEnhancer:    always(processor.StageDiarizer),
	processor.StageDiarizer:    always(processor.StageTranscriber),
	processor.StageTranscriber: always(processor.StageProfanity),
	processor.StageProfanity: func(s types.PipelineState) string {
		if s.ProfanityDetected {
			return End
		}
		return processor.StageSplitter
	},
	processor.StageSplitter: func(s types.PipelineState) string {
		if len(s.Questions) == 0 {
			return End
		}
		return processor.StageGenerator
	},
	processor.StageGenerator: always(End),
}

// DefaultCachedStages are the stages whose output is stored per basename.
// The splitter is cached with the generator so a replayed answer set always
// meets the questions it was built for.
var DefaultCachedStages = []string{
	processor.StageDiarizer,
	processor.StageTranscriber,
	processor.StageSplitter,
	processor.StageGenerator,
}

// Pipeline owns the nodes and the optional cache.
type Pipeline struct {
	nodes  map[string]processor.Node
	store  *cache.Store
	cached map[string]bool
	log    *logger.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCache stores the output of stages (DefaultCachedStages when none are
// given) in store.
func WithCache(store *cache.Store, stages ...string) Option {
	return func(p *Pipeline) {
		p.store = store
		if len(stages) == 0 {
			stages = DefaultCachedStages
		}
		for _, s := range stages {
			p.cached[s] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New registers nodes by name. Every state in the transition table needs a
// node.
func New(nodes []processor.Node, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		nodes:  make(map[string]processor.Node, len(nodes)),
		cached: map[string]bool{},
		log:    logger.Discard(),
	}
	for _, n := range nodes {
		p.nodes[n.Name()] = n
	}
	for state := range Transitions {
		if _, ok := p.nodes[state]; !ok {
			return nil, fmt.Errorf("pipeline: no node for state %q", state)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Result is the final state of one run.
type Result struct {
	State      types.PipelineState `json:"state"`
	Trace      []string            `json:"trace"`
	CacheHits  []string            `json:"cache_hits,omitempty"`
	Outcome    Outcome             `json:"outcome"`
	DurationMs int64               `json:"duration_ms"`
}

// maxSteps bounds the loop; the table is acyclic so a run visits each
// state at most once.
const maxSteps = 16

// Run drives the machine from Entry to End. key identifies the run's cache
// entries (the output basename).
func (p *Pipeline) Run(ctx context.Context, state types.PipelineState, key string) (Result, error) {
	start := time.Now()
	res := Result{}
	current := Entry(state)

	for steps := 0; current != End; steps++ {
		if steps >= maxSteps {
			return res, errors.New("pipeline: step limit exceeded")
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		node, ok := p.nodes[current]
		if !ok {
			return res, fmt.Errorf("pipeline: no node for state %q", current)
		}
		res.Trace = append(res.Trace, current)
		log := p.log.WithField("stage", current)

		u, hit := p.lookup(current, key)
		if hit && !fits(current, state, u) {
			log.Warn("cached output does not match the current questions, recomputing")
			hit = false
		}
		if hit {
			res.CacheHits = append(res.CacheHits, current)
			log.Info("stage served from cache")
		} else {
			stageStart := time.Now()
			var err error
			u, err = node.Run(ctx, state)
			if err != nil {
				res.State = state
				res.DurationMs = time.Since(start).Milliseconds()
				return res, fmt.Errorf("%s: %w", current, err)
			}
			log.WithField("duration_ms", time.Since(stageStart).Milliseconds()).Info("stage finished")
			p.save(current, key, u)
		}

		state.Apply(u)
		next, ok := Transitions[current]
		if !ok {
			return res, fmt.Errorf("pipeline: no transition from %q", current)
		}
		current = next(state)
	}

	res.State = state
	res.Outcome = outcomeOf(state)
	res.DurationMs = time.Since(start).Milliseconds()
	return res, nil
}

func outcomeOf(s types.PipelineState) Outcome {
	switch {
	case s.ProfanityDetected:
		return OutcomeProfanity
	case len(s.Questions) == 0:
		return OutcomeNoQuestions
	default:
		return OutcomeCompleted
	}
}

// fits reports whether a cached update can be merged into state. Cached
// answers must cover exactly the current question set.
func fits(stage string, state types.PipelineState, u types.Update) bool {
	if stage != processor.StageGenerator {
		return true
	}
	if len(u.Answers) != len(state.Questions) {
		return false
	}
	seen := make(map[string]bool, len(u.Answers))
	for _, a := range u.Answers {
		q, ok := state.QuestionByID(a.QID)
		if !ok || seen[a.QID] || (a.Question != "" && a.Question != q.Question) {
			return false
		}
		seen[a.QID] = true
	}
	return true
}

func (p *Pipeline) lookup(stage, key string) (types.Update, bool) {
	var u types.Update
	if p.store == nil || key == "" || !p.cached[stage] {
		return u, false
	}
	ok, err := p.store.Get(stage, key, &u)
	if err != nil {
		p.log.WithError(err).WithField("stage", stage).Warn("cache read failed")
		return types.Update{}, false
	}
	return u, ok
}

func (p *Pipeline) save(stage, key string, u types.Update) {
	if p.store == nil || key == "" || !p.cached[stage] {
		return
	}
	if err := p.store.Put(stage, key, u); err != nil {
		p.log.WithError(err).WithField("stage", stage).Warn("cache write failed")
	}
}
