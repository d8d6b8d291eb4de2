package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// identity
	IdentityProvider  string
	IdentityTimeout   time.Duration
	IdentityCacheTTL  time.Duration
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	KratosPublicURL   string

	// generation
	OpenAIAPIKey           string
	OpenAIBaseURL          string
	OpenAIModel            string
	GenerateTimeout        time.Duration
	GenerateRequiresCredit bool

	CORSAllowedOrigins []string
	RateLimitPerMinute int
	MaxBodyBytes       int64

	OTelEnabled  bool
	OTelEndpoint string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		IdentityProvider:  strings.ToLower(getEnv("IDENTITY_PROVIDER", "supabase")),
		IdentityTimeout:   time.Duration(getEnvInt("IDENTITY_TIMEOUT_MS", 3000)) * time.Millisecond,
		IdentityCacheTTL:  time.Duration(getEnvInt("IDENTITY_CACHE_TTL_MS", 0)) * time.Millisecond,
		SupabaseURL:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		KratosPublicURL:   getEnv("KRATOS_PUBLIC_URL", "http://127.0.0.1:4433"),

		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GenerateTimeout:        time.Duration(getEnvInt("GENERATE_TIMEOUT_MS", 30000)) * time.Millisecond,
		GenerateRequiresCredit: getEnvBool("GENERATE_REQUIRES_CREDIT", false),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 64<<10)),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "contentgate")
	pass := getEnv("DB_PASSWORD", "contentgate")
	name := getEnv("DB_NAME", "contentgate")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout derives a bounded context from parent so request cancellation still propagates.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an int, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a bool, using %t\n", key, v, fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
