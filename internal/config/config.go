// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultOMDbBaseURL   = "https://www.omdbapi.com"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash"

	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "google/gemini-2.0-flash-001"
)

// Config 存储应用配置
type Config struct {
	Port      string
	LogDir    string
	LogLevel  string
	DebugMode bool

	// Metadata provider (OMDb)
	OMDbAPIKey  string
	OMDbBaseURL string

	// Generative provider
	LLMProvider   string
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	// Alternative OpenAI-compatible backend (LLM_PROVIDER=openrouter)
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	SessionTTL     time.Duration
	HTTPTimeout    time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	sessionTTL, err := getEnvDuration("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	rps, err := getEnvFloat("RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogDir:    getEnv("LOG_DIR", "logs"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DebugMode: getEnvBool("DEBUG_MODE", false),

		OMDbAPIKey:  getEnv("OMDB_API_KEY", ""),
		OMDbBaseURL: strings.TrimRight(getEnv("OMDB_BASE_URL", DefaultOMDbBaseURL), "/"),

		LLMProvider:   getEnv("LLM_PROVIDER", "google"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL: strings.TrimRight(getEnv("GEMINI_BASE_URL", DefaultGeminiBaseURL), "/"),
		GeminiModel:   getEnv("GEMINI_MODEL", DefaultGeminiModel),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: strings.TrimRight(getEnv("OPENROUTER_BASE_URL", DefaultOpenRouterBaseURL), "/"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", DefaultOpenRouterModel),

		SessionTTL:     sessionTTL,
		HTTPTimeout:    httpTimeout,
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}

	return cfg, nil
}

// Warnings lists configuration gaps that only surface later as provider errors.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.OMDbAPIKey == "" {
		warnings = append(warnings, "OMDB_API_KEY is not set; searches will fail at the provider")
	}
	if c.LLMConfig()["api_key"] == "" {
		warnings = append(warnings, fmt.Sprintf("no API key set for LLM provider %q; recaps will fail at the provider", c.LLMProvider))
	}
	return warnings
}

// LLMConfig renders the active provider's settings in the map form
// llm.GetProvider expects.
func (c *Config) LLMConfig() map[string]string {
	if c.LLMProvider == "openrouter" {
		return map[string]string{
			"api_key":       c.OpenRouterAPIKey,
			"base_url":      c.OpenRouterBaseURL,
			"default_model": c.OpenRouterModel,
			"http_referer":  "http://localhost:" + c.Port,
		}
	}
	return map[string]string{
		"api_key":       c.GeminiAPIKey,
		"base_url":      c.GeminiBaseURL,
		"default_model": c.GeminiModel,
	}
}

// LLMModel is the model recaps are generated with.
func (c *Config) LLMModel() string {
	return c.LLMConfig()["default_model"]
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
