package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	LLM      LLMConfig
	Analysis AnalysisConfig
	Patterns PatternsConfig
	Learner  LearnerConfig
	Queue    QueueConfig
	Logging  LoggingConfig
}

// LLMConfig configures the external LLM capability.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// AnalysisConfig configures the orchestrator.
type AnalysisConfig struct {
	AnalyzerTimeout  time.Duration
	MaxParallel      int
	MaxDocumentChars int
}

// PatternsConfig configures pattern retrieval thresholds.
type PatternsConfig struct {
	MinConfidence float64
	MinSamples    int
	MaxMatched    int
}

// LearnerConfig configures the background learner.
type LearnerConfig struct {
	SweepInterval time.Duration
	BatchSize     int
}

// QueueConfig configures the resolved-finding queue.
type QueueConfig struct {
	Backend           string // "memory" or "sqs"
	SQSQueueURL       string
	SQSRegion         string
	VisibilitySeconds int
	WorkerConcurrency int
}

// LoggingConfig configures telemetry output.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("CB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("cors_allow_origins", "http://localhost:5173")
	v.SetDefault("database_url", "")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "90s")

	v.SetDefault("analysis.analyzer_timeout", "120s")
	v.SetDefault("analysis.max_parallel", 3)
	v.SetDefault("analysis.max_document_chars", 10000)

	v.SetDefault("patterns.min_confidence", 0.5)
	v.SetDefault("patterns.min_samples", 3)
	v.SetDefault("patterns.max_matched", 10)

	v.SetDefault("learner.sweep_interval", "30s")
	v.SetDefault("learner.batch_size", 50)

	v.SetDefault("queue.backend", "memory")
	v.SetDefault("queue.sqs_queue_url", "")
	v.SetDefault("queue.sqs_region", "us-east-1")
	v.SetDefault("queue.visibility_seconds", 300)
	v.SetDefault("queue.worker_concurrency", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	return Config{
		Port:            v.GetString("port"),
		Env:             normalizeEnv(v.GetString("env")),
		CORSAllowOrigin: splitAndTrim(v.GetString("cors_allow_origins")),
		DatabaseURL:     v.GetString("database_url"),
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			Temperature: float32(v.GetFloat64("llm.temperature")),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Analysis: AnalysisConfig{
			AnalyzerTimeout:  v.GetDuration("analysis.analyzer_timeout"),
			MaxParallel:      v.GetInt("analysis.max_parallel"),
			MaxDocumentChars: v.GetInt("analysis.max_document_chars"),
		},
		Patterns: PatternsConfig{
			MinConfidence: v.GetFloat64("patterns.min_confidence"),
			MinSamples:    v.GetInt("patterns.min_samples"),
			MaxMatched:    v.GetInt("patterns.max_matched"),
		},
		Learner: LearnerConfig{
			SweepInterval: v.GetDuration("learner.sweep_interval"),
			BatchSize:     v.GetInt("learner.batch_size"),
		},
		Queue: QueueConfig{
			Backend:           v.GetString("queue.backend"),
			SQSQueueURL:       v.GetString("queue.sqs_queue_url"),
			SQSRegion:         v.GetString("queue.sqs_region"),
			VisibilitySeconds: v.GetInt("queue.visibility_seconds"),
			WorkerConcurrency: v.GetInt("queue.worker_concurrency"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}
