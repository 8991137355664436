package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Order   OrderConfig
	Batch   BatchConfig
	Log     LogConfig
	Tracing TracingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
	WebDir   string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	// Enabled decides whether a model draft is requested when the caller
	// does not say so.
	Enabled         bool
	Provider        string
	Model           string
	Project         string
	Region          string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
	Debug           bool
}

// OrderConfig holds the knobs of the order assembly stage
type OrderConfig struct {
	Confidence     float64
	VocabularyFile string
}

// BatchConfig holds configuration for directory batch runs
type BatchConfig struct {
	Workers int
}

type LogConfig struct {
	Level string
}

// TracingConfig controls OpenTelemetry spans. Disabled tracing keeps the
// no-op global provider.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first; variables already set win.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.skip", "err", err)
	}
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr: getEnv("GRPC_ADDR", ":9090"),
			WebDir:   getEnv("WEB_DIR", "web"),
		},
		LLM: LLMConfig{
			Enabled:         getEnvAsBool("USE_VERTEX", true),
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
			Model:           getEnv("MODEL_NAME", "gemini-2.0-flash"),
			Project:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
			Region:          getEnv("VERTEX_REGION", "us-central1"),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.2),
			MaxOutputTokens: getEnvAsInt32("LLM_MAX_OUTPUT_TOKENS", 1024),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			Debug:           getEnvAsBool("DEBUG_MODE", false),
		},
		Order: OrderConfig{
			Confidence:     getEnvAsFloat64("ORDER_CONFIDENCE", 0.92),
			VocabularyFile: getEnv("VOCABULARY_FILE", ""),
		},
		Batch: BatchConfig{
			Workers: getEnvAsInt("BATCH_WORKERS", 4),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "pedidos"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("LLM_PROVIDER %q is not supported", c.LLM.Provider), ErrInvalidInput)
	}
	if c.Order.Confidence < 0 || c.Order.Confidence > 1 {
		return NewAppError("CONFIG_ERROR", "ORDER_CONFIDENCE must be within [0,1]", ErrInvalidInput)
	}
	if c.Batch.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
