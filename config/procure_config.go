package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	// SendGrid
	SendGridAPIKey  string
	SendGridBaseURL string
	FromEmail       string
	FromName        string
	ReplyToEmail    string

	// Snowflake node
	SnowflakeID int64

	// Webhook
	WebhookBodyLimitMB int

	// Rate limiting
	RateLimitPerMinute int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "procureflow"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 512),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SEC", 5)) * time.Second,

		// SendGrid
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		SendGridBaseURL: getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
		FromEmail:       getEnv("MAIL_FROM_EMAIL", "sourcing@procureflow.io"),
		FromName:        getEnv("MAIL_FROM_NAME", "ProcureFlow"),
		ReplyToEmail:    getEnv("MAIL_REPLY_TO", "parse@inbound.procureflow.io"),

		// Snowflake node
		SnowflakeID: int64(getEnvInt("SNOWFLAKE_NODE_ID", 1)),

		// Webhook
		WebhookBodyLimitMB: getEnvInt("WEBHOOK_BODY_LIMIT_MB", 10),

		// Rate limiting
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MIN", 300),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
