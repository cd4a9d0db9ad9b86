package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values come from environment variables with sensible defaults; a .env file
// in the working directory is loaded first when present.
//
// Environment Variables:
//
// LLM Configuration:
//   - LLM_API_KEY: API key for the completion provider (required)
//   - LLM_API_URL: API endpoint URL (default: https://api.openai.com/v1)
//   - LLM_MODEL: Model name to use (default: gpt-4o-mini)
//   - LLM_MAX_TOKENS: Maximum tokens for responses (default: 2000)
//   - LLM_TEMPERATURE: Temperature for responses (default: 0.7)
//   - LLM_TIMEOUT: Request timeout in seconds (default: 60)
//
// Server Configuration:
//   - HTTP_ADDR: Listen address (default: :8080)
//
// Database Configuration:
//   - DB_PATH: SQLite database path (default: data/finassist.db)
//
// Agent Configuration:
//   - AGENT_MAX_ITERATIONS: Max tool-calling turns per invocation (default: 5)
//
// Conversation Configuration:
//   - CONVERSATION_MAX_MESSAGES: History cap per caller (default: 20)
//   - CONVERSATION_TIMEOUT_MINUTES: Inactivity eviction window (default: 30)
//
// Recurring Expense Configuration:
//   - RECURRING_CRON_EXPR: Schedule for template materialization (default: "0 6 1 * *")
//   - RECURRING_ENABLED: Enable the scheduler (default: true)
//
// Search Configuration:
//   - SEARCH_API_KEY: Tavily API key; enables the web-search agent when set (default: "")
//   - SEARCH_API_URL: Search endpoint (default: https://api.tavily.com/search)
//
// System Configuration:
//   - LOG_LEVEL: debug|info|warn|error (default: info)
type Config struct {
	LLM          LLMConfig          `json:"llm"`
	Server       ServerConfig       `json:"server"`
	DB           DBConfig           `json:"db"`
	Agent        AgentConfig        `json:"agent"`
	Conversation ConversationConfig `json:"conversation"`
	Recurring    RecurringConfig    `json:"recurring"`
	Search       SearchConfig       `json:"search"`
	LogLevel     string             `json:"log_level"`
}

// LLMConfig holds the configuration for the completion client.
// Works with any OpenAI-compatible provider.
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// DBConfig holds the database configuration.
type DBConfig struct {
	Path string `json:"path"`
}

// AgentConfig holds the configuration for agent loops.
type AgentConfig struct {
	MaxIterations int `json:"max_iterations"`
}

// ConversationConfig holds the per-caller history policy.
type ConversationConfig struct {
	MaxMessages    int `json:"max_messages"`
	TimeoutMinutes int `json:"timeout_minutes"`
}

// RecurringConfig holds the recurring-expense scheduler configuration.
type RecurringConfig struct {
	CronExpr string `json:"cron_expr"`
	Enabled  bool   `json:"enabled"`
}

// SearchConfig holds the web-search configuration. An empty APIKey leaves
// the search-backed agent disabled.
type SearchConfig struct {
	APIKey string `json:"api_key"`
	APIURL string `json:"api_url"`
}

// Option is a function type for customizing Config.
type Option func(*Config)

// NewFromEnv creates a Config from environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://api.openai.com/v1"),
			Model:       getEnvString("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvInt("LLM_TIMEOUT", 60),
		},
		Server: ServerConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
		DB: DBConfig{
			Path: getEnvString("DB_PATH", "data/finassist.db"),
		},
		Agent: AgentConfig{
			MaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", 5),
		},
		Conversation: ConversationConfig{
			MaxMessages:    getEnvInt("CONVERSATION_MAX_MESSAGES", 20),
			TimeoutMinutes: getEnvInt("CONVERSATION_TIMEOUT_MINUTES", 30),
		},
		Recurring: RecurringConfig{
			CronExpr: getEnvString("RECURRING_CRON_EXPR", "0 6 1 * *"),
			Enabled:  getEnvBool("RECURRING_ENABLED", true),
		},
		Search: SearchConfig{
			APIKey: getEnvString("SEARCH_API_KEY", ""),
			APIURL: getEnvString("SEARCH_API_URL", "https://api.tavily.com/search"),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks that required configuration is set.
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be at least 1")
	}
	if c.Conversation.MaxMessages < 1 {
		return fmt.Errorf("CONVERSATION_MAX_MESSAGES must be at least 1")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
