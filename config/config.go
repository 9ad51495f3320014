package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string
	AppEnv  string
	Port    string
	GinMode string

	DBDriver string
	DBURL    string

	JWTSecret string
	JWTTTL    time.Duration

	AppURL     string
	CORSOrigin []string

	StripeSecretKey       string
	StripeWebhookSecret   string
	Currency              string
	PaymentTimeout        time.Duration
	PendingOrderTTL       time.Duration
	SweepSchedule         string
	WebhookReplaySchedule string
	ExhibitionSchedule    string

	GoogleClientID         string
	GoogleClientSecret     string
	GoogleRedirectURL      string
	GoogleFrontendRedirect string

	Notifier           string
	MailgunDomain      string
	MailgunAPIKey      string
	MailgunSender      string
	RabbitMQURL        string
	RabbitMQEmailQueue string

	GCSBucket          string
	GCSCredentialsFile string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RateLimitMax    int
	RateLimitWindow time.Duration

	MetricsEnabled bool
}

// LoadEnv reads .env (when present) and returns the process configuration.
func LoadEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return Load()
}

// Load builds the configuration from the current environment only.
func Load() *Config {
	cfg := &Config{
		AppName: getEnv("APP_NAME", "gallery-api"),
		AppEnv:  getEnv("APP_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", ""),

		DBDriver: getEnv("DB_DRIVER", "postgres"),
		DBURL:    mustEnv("DB_URL"),

		JWTSecret: mustEnv("JWT_SECRET"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		AppURL:     strings.TrimRight(getEnv("APP_URL", "http://localhost:5173"), "/"),
		CORSOrigin: splitList(getEnv("CORS_ORIGIN", "http://localhost:5173")),

		StripeSecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
		Currency:              strings.ToLower(getEnv("CURRENCY", "usd")),
		PaymentTimeout:        getDuration("PAYMENT_TIMEOUT", 10*time.Second),
		PendingOrderTTL:       getDuration("PENDING_ORDER_TTL", 2*time.Hour),
		SweepSchedule:         getEnv("SWEEP_SCHEDULE", "@every 15m"),
		WebhookReplaySchedule: getEnv("WEBHOOK_REPLAY_SCHEDULE", "@every 5m"),
		ExhibitionSchedule:    getEnv("EXHIBITION_SCHEDULE", "@hourly"),

		GoogleClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:      getEnv("GOOGLE_REDIRECT_URL", ""),
		GoogleFrontendRedirect: getEnv("GOOGLE_FRONTEND_REDIRECT", ""),

		Notifier:           getEnv("NOTIFIER", "log"),
		MailgunDomain:      getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey:      getEnv("MAILGUN_API_KEY", ""),
		MailgunSender:      getEnv("MAILGUN_SENDER", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQEmailQueue: getEnv("RABBITMQ_EMAIL_QUEUE", "emails"),

		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getInt("REDIS_DB", 0),
		RateLimitMax:    getInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Hour),

		MetricsEnabled: getBool("METRICS_ENABLED", true),
	}
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GoogleEnabled reports whether Google sign-in routes should be mounted.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MailConfig is what the email worker needs; it does not require DB_URL or JWT_SECRET.
type MailConfig struct {
	AppName            string
	AppEnv             string
	MailgunDomain      string
	MailgunAPIKey      string
	MailgunSender      string
	RabbitMQURL        string
	RabbitMQEmailQueue string
}

func LoadMail() *MailConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return &MailConfig{
		AppName:            getEnv("APP_NAME", "gallery-api") + "-email-worker",
		AppEnv:             getEnv("APP_ENV", "development"),
		MailgunDomain:      getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey:      getEnv("MAILGUN_API_KEY", ""),
		MailgunSender:      getEnv("MAILGUN_SENDER", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQEmailQueue: getEnv("RABBITMQ_EMAIL_QUEUE", "emails"),
	}
}
