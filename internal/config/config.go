// Package config loads the voiceqa configuration from .env, an optional
// config file, environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"voice-qa-go/internal/logger"
	"voice-qa-go/internal/retry"
)

// Config is the root configuration.
type Config struct {
	Paths         PathsConfig         `mapstructure:"paths"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Retry         RetryConfig         `mapstructure:"retry"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Diarization   DiarizationConfig   `mapstructure:"diarization"`
	Screening     ScreeningConfig     `mapstructure:"screening"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Server        ServerConfig        `mapstructure:"server"`
	History       HistoryConfig       `mapstructure:"history"`
}

// PathsConfig holds the working directories.
type PathsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	CacheDir  string `mapstructure:"cache_dir"`
	WorkDir   string `mapstructure:"work_dir"`
	PromptDir string `mapstructure:"prompt_dir"`
}

// AudioConfig drives the validation gate and the ffmpeg tools.
type AudioConfig struct {
	MaxBytes int64    `mapstructure:"max_bytes"`
	Formats  []string `mapstructure:"formats"`
	Codecs   []string `mapstructure:"codecs"`
	FFmpeg   string   `mapstructure:"ffmpeg"`
	FFprobe  string   `mapstructure:"ffprobe"`
}

// RetryConfig is shared by every external service client.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
}

type LLMConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

type TranscriptionConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// Mock returns MockText instead of calling the service.
	Mock     bool   `mapstructure:"mock"`
	MockText string `mapstructure:"mock_text"`
}

type DiarizationConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ScreeningConfig configures the sensitive topic classifier. An empty
// endpoint disables it; profanity screening is always on.
type ScreeningConfig struct {
	ClassifierEndpoint string   `mapstructure:"classifier_endpoint"`
	Threshold          float64  `mapstructure:"threshold"`
	ExtraWords         []string `mapstructure:"extra_words"`
}

type LoggingConfig struct {
	Environment string `mapstructure:"environment"`
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.output_dir", "output")
	v.SetDefault("paths.cache_dir", ".cache/voiceqa")
	v.SetDefault("paths.work_dir", "")
	v.SetDefault("paths.prompt_dir", "")
	v.SetDefault("audio.max_bytes", 500*1024*1024)
	v.SetDefault("audio.formats", []string{"mp3", "wav", "flac", "m4a", "ogg"})
	v.SetDefault("audio.codecs", []string{"mp3", "pcm_s16le", "flac", "aac", "opus"})
	v.SetDefault("audio.ffmpeg", "ffmpeg")
	v.SetDefault("audio.ffprobe", "ffprobe")
	v.SetDefault("retry.max_attempts", retry.DefaultAttempts)
	v.SetDefault("retry.delay", retry.DefaultDelay)
	v.SetDefault("llm.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout_seconds", 60)
	v.SetDefault("transcription.endpoint", "https://api.openai.com/v1/audio/transcriptions")
	v.SetDefault("transcription.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("transcription.model", "whisper-1")
	v.SetDefault("transcription.timeout_seconds", 300)
	v.SetDefault("transcription.mock", false)
	v.SetDefault("transcription.mock_text", "")
	v.SetDefault("diarization.enabled", true)
	v.SetDefault("diarization.endpoint", "")
	v.SetDefault("diarization.token", "${HF_TOKEN}")
	v.SetDefault("diarization.timeout_seconds", 300)
	v.SetDefault("screening.classifier_endpoint", "")
	v.SetDefault("screening.threshold", 0.7)
	v.SetDefault("screening.extra_words", []string{})
	v.SetDefault("logging.environment", "local")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout_seconds", 600)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", ".cache/voiceqa/history.db")
}

// Load reads the configuration. If configFile is empty the standard search
// order applies: ./voiceqa.*, ./configs/voiceqa.*, $HOME/.config/voiceqa/voiceqa.*.
// Environment variables use the VOICEQA_ prefix, e.g. VOICEQA_LLM_MODEL.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voiceqa")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/voiceqa")
		}
	}

	v.SetEnvPrefix("VOICEQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	log := logger.New().WithComponent("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		log.Debug("no config file found, using defaults and environment variables")
	} else {
		log.WithField("path", v.ConfigFileUsed()).Debug("loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.LLM.APIKey = resolveEnvRef(cfg.LLM.APIKey)
	cfg.Transcription.APIKey = resolveEnvRef(cfg.Transcription.APIKey)
	cfg.Diarization.Token = resolveEnvRef(cfg.Diarization.Token)
	if cfg.Diarization.Token == "" {
		cfg.Diarization.Token = os.Getenv("HF_TOKEN")
	}
	cfg.Audio.Formats = splitList(cfg.Audio.Formats)
	cfg.Audio.Codecs = splitList(cfg.Audio.Codecs)
	cfg.Screening.ExtraWords = splitList(cfg.Screening.ExtraWords)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no run could work with.
func (c *Config) Validate() error {
	if c.Audio.MaxBytes <= 0 {
		return errors.New("audio.max_bytes must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Screening.Threshold < 0 || c.Screening.Threshold > 1 {
		return fmt.Errorf("screening.threshold %.2f out of range [0,1]", c.Screening.Threshold)
	}
	return nil
}

// RetryPolicy builds the policy shared by the service clients.
func (c *Config) RetryPolicy(log *logger.Logger) retry.Policy {
	return retry.Policy{MaxAttempts: c.Retry.MaxAttempts, Delay: c.Retry.Delay, Log: log}
}

// Logger applies the logging section and returns a root logger.
func (c *Config) Logger() *logger.Logger {
	logger.Configure(logger.Settings{
		Environment: c.Logging.Environment,
		Level:       c.Logging.Level,
		Format:      c.Logging.Format,
	})
	return logger.New()
}

// resolveEnvRef replaces "${VAR_NAME}" with the value of VAR_NAME. An unset
// variable resolves to "".
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
