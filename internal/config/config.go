package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens issued after identity provider login
	JWTSecret       string
	JWTAccessExpiry time.Duration

	// Identity provider (OIDC)
	OIDCIssuer   string
	OIDCAudience string
	OIDCJWKSURL  string

	// AI Providers (ticket solution suggestions)
	GLMAPIKey string
	GLMAPIURL string
	GLMModel  string

	DeepSeekAPIKey string
	DeepSeekAPIURL string
	DeepSeekModel  string

	AITimeout time.Duration

	// Authorization
	ElectromedicinaEmail string
	ApproverEmails       []string
	AllowTicketReopen    bool

	// Attachments
	BlobBucket      string
	BlobEndpointURL string
	BlobRegion      string
	BlobURLExpiry   time.Duration

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	LogLevel    string

	SentryDSN string

	// Bootstrap accounts, loaded on start when set
	SeedFile string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "portal_hospitalario"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTAccessExpiry: parseDuration(getEnv("JWT_ACCESS_EXPIRY", "8h"), 8*time.Hour),

		OIDCIssuer:   getEnv("OIDC_ISSUER", "https://accounts.google.com"),
		OIDCAudience: getEnv("OIDC_AUDIENCE", ""),
		OIDCJWKSURL:  getEnv("OIDC_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs"),

		GLMAPIKey: getEnv("GLM_API_KEY", ""),
		GLMAPIURL: getEnv("GLM_API_URL", "https://api.z.ai/api/paas/v4/chat/completions"),
		GLMModel:  getEnv("GLM_MODEL", "glm-5"),

		DeepSeekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekAPIURL: getEnv("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		DeepSeekModel:  getEnv("DEEPSEEK_MODEL", "deepseek-chat"),

		AITimeout: parseDuration(getEnv("AI_TIMEOUT", "30s"), 30*time.Second),

		ElectromedicinaEmail: getEnv("ELECTROMEDICINA_EMAIL", "electromedicina@hospital.local"),
		ApproverEmails:       ParseCSV(getEnv("APPROVER_EMAILS", "")),
		AllowTicketReopen:    parseBool(getEnv("TICKET_ALLOW_REOPEN", "false")),

		BlobBucket:      getEnv("BLOB_BUCKET", ""),
		BlobEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		BlobRegion:      getEnv("AWS_REGION", "us-east-1"),
		BlobURLExpiry:   parseDuration(getEnv("BLOB_URL_EXPIRY", "5m"), 5*time.Minute),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		SeedFile: getEnv("SEED_FILE", ""),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// ParseCSV splits a comma separated list, dropping blanks.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
