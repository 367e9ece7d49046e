package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the Foresight server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	AI         AIConfig
	Prediction PredictionConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// AIConfig selects the advisory oracle. An empty Provider disables it.
type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	CacheTTL         time.Duration
	Ollama           OllamaConfig
	VLLM             VLLMConfig
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type AnthropicConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// PredictionConfig tunes prediction runs and the validator.
type PredictionConfig struct {
	LookbackDays        int
	MaxHorizonHours     int
	RecordLimit         int
	AdvisorTimeout      time.Duration
	ValidationBatchSize int
	// Capabilities lists the prerequisites this deployment satisfies for
	// automatic remediation.
	Capabilities []string
}

var validProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
	"mock":      true,
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("FORESIGHT_PORT", 8080),
			Env:                envString("FORESIGHT_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         os.Getenv("AI_PROVIDER"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			CacheTTL:         envDuration("AI_CACHE_TTL", time.Hour),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Prediction: PredictionConfig{
			LookbackDays:        envInt("PREDICTION_LOOKBACK_DAYS", 30),
			MaxHorizonHours:     envInt("PREDICTION_MAX_HORIZON_HOURS", 168),
			RecordLimit:         envInt("PREDICTION_RECORD_LIMIT", 1000),
			AdvisorTimeout:      envDuration("PREDICTION_ADVISOR_TIMEOUT", 20*time.Second),
			ValidationBatchSize: envInt("VALIDATION_BATCH_SIZE", 500),
			Capabilities:        envList("PREVENTION_CAPABILITIES", []string{"monitoring_enabled"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AdvisoryEnabled reports whether an advisory oracle is configured.
func (c *Config) AdvisoryEnabled() bool {
	return c.AI.Provider != ""
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.AI.Provider != "" {
		if !validProviders[c.AI.Provider] {
			return fmt.Errorf("AI_PROVIDER must be one of ollama, vllm, openai, anthropic, mock; got %q", c.AI.Provider)
		}
		if c.AI.Provider == "mock" && c.Server.Env == "production" {
			return fmt.Errorf("AI_PROVIDER mock is not allowed in production")
		}
		if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
		}
		if c.AI.Provider == "anthropic" && c.AI.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
		}
		if c.AI.Provider == "vllm" && c.AI.VLLM.Model == "" {
			return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
		}
		if c.AI.InferenceTimeout <= 0 {
			return fmt.Errorf("AI_INFERENCE_TIMEOUT_SECS must be positive, got %s", c.AI.InferenceTimeout)
		}
		for name, u := range map[string]string{
			"OLLAMA_BASE_URL":    c.AI.Ollama.BaseURL,
			"VLLM_BASE_URL":      c.AI.VLLM.BaseURL,
			"OPENAI_BASE_URL":    c.AI.OpenAI.BaseURL,
			"ANTHROPIC_BASE_URL": c.AI.Anthropic.BaseURL,
		} {
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return fmt.Errorf("%s must start with http:// or https://, got %q", name, u)
			}
		}
	}

	p := c.Prediction
	if p.LookbackDays < 1 {
		return fmt.Errorf("PREDICTION_LOOKBACK_DAYS must be at least 1, got %d", p.LookbackDays)
	}
	if p.MaxHorizonHours < 1 {
		return fmt.Errorf("PREDICTION_MAX_HORIZON_HOURS must be at least 1, got %d", p.MaxHorizonHours)
	}
	if p.RecordLimit < 1 {
		return fmt.Errorf("PREDICTION_RECORD_LIMIT must be at least 1, got %d", p.RecordLimit)
	}
	if p.AdvisorTimeout <= 0 {
		return fmt.Errorf("PREDICTION_ADVISOR_TIMEOUT must be positive, got %s", p.AdvisorTimeout)
	}
	if p.ValidationBatchSize < 1 {
		return fmt.Errorf("VALIDATION_BATCH_SIZE must be at least 1, got %d", p.ValidationBatchSize)
	}
	if c.Server.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1, got %d", c.Server.RateLimitPerMinute)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList splits a comma-separated variable. Set but empty yields no items.
func envList(key string, defaultVal []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
