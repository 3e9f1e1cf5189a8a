package app

import (
	"context"
	"fmt"
	"strings"

	"voice-qa-go/internal/cache"
	"voice-qa-go/internal/config"
	"voice-qa-go/internal/diarization"
	"voice-qa-go/internal/extractor"
	"voice-qa-go/internal/history"
	"voice-qa-go/internal/llm"
	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/media"
	"voice-qa-go/internal/pipeline"
	"voice-qa-go/internal/processor"
	"voice-qa-go/internal/screening"
	"voice-qa-go/internal/transcription"
	"voice-qa-go/internal/validate"
)

// Services are the collaborators behind the pipeline nodes.
type Services struct {
	Tools       *media.Tools
	LLM         extractor.Invoker
	Transcriber transcription.Transcriber
	Diarizer    diarization.Diarizer
	Screener    *screening.Screener
}

// NewServices builds the real service clients from cfg.
func NewServices(cfg *config.Config, log *logger.Logger) (Services, error) {
	policy := cfg.RetryPolicy(log)

	client, err := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		PromptDir:      cfg.Paths.PromptDir,
	}, llm.WithRetryPolicy(policy), llm.WithLogger(log.WithComponent("llm")))
	if err != nil {
		return Services{}, fmt.Errorf("llm client: %w", err)
	}

	var tr transcription.Transcriber
	if cfg.Transcription.Mock {
		log.Warn("using mock transcription")
		tr = transcription.Mock{Text: cfg.Transcription.MockText}
	} else {
		tr = transcription.NewClient(transcription.Config{
			Endpoint:       cfg.Transcription.Endpoint,
			APIKey:         cfg.Transcription.APIKey,
			Model:          cfg.Transcription.Model,
			TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
		}, policy, log)
	}

	var dz diarization.Diarizer = diarization.Noop{}
	if cfg.Diarization.Enabled {
		if strings.TrimSpace(cfg.Diarization.Token) == "" {
			log.Warn("HF_TOKEN not set; speaker diarization will be skipped")
		}
		dz = diarization.NewClient(diarization.Config{
			Endpoint:       cfg.Diarization.Endpoint,
			Token:          cfg.Diarization.Token,
			TimeoutSeconds: cfg.Diarization.TimeoutSeconds,
		}, policy, log)
	}

	screener := &screening.Screener{
		Profanity: screening.NewProfanityFilter(cfg.Screening.ExtraWords...),
		Threshold: cfg.Screening.Threshold,
		Log:       log.WithComponent("screening"),
	}
	if cfg.Screening.ClassifierEndpoint != "" {
		screener.Classifier = &screening.Classifier{
			Endpoint: cfg.Screening.ClassifierEndpoint,
			Token:    cfg.Diarization.Token,
			Policy:   policy,
		}
	}

	return Services{
		Tools:       media.NewTools(media.ExecRunner{}, cfg.Audio.FFmpeg, cfg.Audio.FFprobe, log),
		LLM:         client,
		Transcriber: tr,
		Diarizer:    dz,
		Screener:    screener,
	}, nil
}

// Nodes builds one node per pipeline state.
func Nodes(svc Services, workDir string, log *logger.Logger) []processor.Node {
	return []processor.Node{
		processor.Enhancer{Tools: svc.Tools, OutDir: workDir},
		processor.Diarizer{Service: svc.Diarizer, Log: log.WithComponent(processor.StageDiarizer)},
		processor.Transcriber{Service: svc.Transcriber, Tools: svc.Tools, WorkDir: workDir, Log: log.WithComponent(processor.StageTranscriber)},
		processor.ProfanityChecker{Detector: svc.Screener, Log: log.WithComponent(processor.StageProfanity)},
		processor.Splitter{Splitter: &extractor.Splitter{LLM: svc.LLM, Topics: svc.Screener, Log: log.WithComponent(processor.StageSplitter)}},
		processor.Generator{LLM: svc.LLM, Log: log.WithComponent(processor.StageGenerator)},
	}
}

// Build assembles an App from configuration. The returned close function
// releases the history database.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, func() error, error) {
	svc, err := NewServices(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return Assemble(ctx, cfg, svc, log)
}

// Assemble wires an App around already built services.
func Assemble(ctx context.Context, cfg *config.Config, svc Services, log *logger.Logger) (*App, func() error, error) {
	store, err := cache.New(cfg.Paths.CacheDir, log.WithComponent("cache"))
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	p, err := pipeline.New(Nodes(svc, cfg.Paths.WorkDir, log),
		pipeline.WithCache(store),
		pipeline.WithLogger(log.WithComponent("pipeline")))
	if err != nil {
		return nil, nil, err
	}

	a := &App{
		Gate: &validate.Gate{
			Prober:   svc.Tools,
			MaxBytes: cfg.Audio.MaxBytes,
			Formats:  cfg.Audio.Formats,
			Codecs:   cfg.Audio.Codecs,
		},
		Pipeline:  p,
		OutputDir: cfg.Paths.OutputDir,
		Log:       log,
	}
	closer := func() error { return nil }
	if cfg.History.Enabled {
		h, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			log.WithError(err).Warn("run history unavailable")
		} else {
			a.History = h
			closer = h.Close
		}
	}
	return a, closer, nil
}
