package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode  string // Set via flag, not env
	LogLevel string

	// MongoDB
	MongoURI          string
	MongoDbName       string
	MongoTransactions bool // Requires a replica set

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret          string
	JwtTTL             time.Duration
	StaffSessionCookie string

	// Server
	ApiPort        string
	ServiceApiPort string
	AllowedOrigins []string

	// Billing
	CurrencyCode           string
	InvoicePaymentDueDays  int
	InvoiceDocumentLinkTTL time.Duration
	UploadURLTTL           time.Duration

	// Salaries
	AdminEmployeeID string // Salaries for this employee always mirror into personal accounts

	// Notifications
	NotificationLookback  time.Duration
	AdminNotificationCap  int
	DeadlineWarningWindow time.Duration

	// Background tasks
	ReconcileSchedule    string
	OverdueCheckSchedule string

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	AwsS3Endpoint      string // Optional, for S3-compatible providers

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables (and an optional .env file).
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGO_DB_NAME", "pixels")
	v.SetDefault("MONGO_TRANSACTIONS", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("STAFF_SESSION_COOKIE", "staff_session")
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("SERVICE_API_PORT", "12345")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("CURRENCY_CODE", "INR")
	v.SetDefault("INVOICE_PAYMENT_DUE_DAYS", 7)
	v.SetDefault("INVOICE_DOCUMENT_LINK_TTL", "168h")
	v.SetDefault("UPLOAD_URL_TTL", "1h")
	v.SetDefault("ADMIN_EMPLOYEE_ID", "")
	v.SetDefault("NOTIFICATION_LOOKBACK", "168h")
	v.SetDefault("ADMIN_NOTIFICATION_CAP", 30)
	v.SetDefault("DEADLINE_WARNING_WINDOW", "48h")
	v.SetDefault("RECONCILE_SCHEDULE", "@every 15m")
	v.SetDefault("OVERDUE_CHECK_SCHEDULE", "@every 1h")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM_ADDRESS", "noreply@pixels.example.com")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("APP_NAME", "Pixels")
	v.SetDefault("RATE_LIMIT_BUCKET_SIZE", 20)
	v.SetDefault("RATE_LIMIT_REFILL_RATE", 5)

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	cfg.MongoURI = v.GetString("MONGO_URI")
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("missing required environment variable: MONGO_URI")
	}
	cfg.JwtSecret = v.GetString("JWT_SECRET")
	if cfg.JwtSecret == "" {
		return nil, fmt.Errorf("missing required environment variable: JWT_SECRET")
	}

	cfg.LogLevel = v.GetString("LOG_LEVEL")
	cfg.MongoDbName = v.GetString("MONGO_DB_NAME")
	cfg.MongoTransactions = v.GetBool("MONGO_TRANSACTIONS")
	cfg.RedisAddr = v.GetString("REDIS_ADDR")
	cfg.RedisPassword = v.GetString("REDIS_PASSWORD")
	cfg.RedisDB = v.GetInt("REDIS_DB")
	cfg.StaffSessionCookie = v.GetString("STAFF_SESSION_COOKIE")
	cfg.ApiPort = v.GetString("API_PORT")
	cfg.ServiceApiPort = v.GetString("SERVICE_API_PORT")
	cfg.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"))
	cfg.CurrencyCode = v.GetString("CURRENCY_CODE")
	cfg.InvoicePaymentDueDays = v.GetInt("INVOICE_PAYMENT_DUE_DAYS")
	cfg.AdminEmployeeID = v.GetString("ADMIN_EMPLOYEE_ID")
	cfg.AdminNotificationCap = v.GetInt("ADMIN_NOTIFICATION_CAP")
	cfg.ReconcileSchedule = v.GetString("RECONCILE_SCHEDULE")
	cfg.OverdueCheckSchedule = v.GetString("OVERDUE_CHECK_SCHEDULE")
	cfg.SmtpHost = v.GetString("SMTP_HOST")
	cfg.SmtpPort = v.GetInt("SMTP_PORT")
	cfg.SmtpUsername = v.GetString("SMTP_USERNAME")
	cfg.SmtpPassword = v.GetString("SMTP_PASSWORD")
	cfg.SmtpFromAddress = v.GetString("SMTP_FROM_ADDRESS")
	cfg.AwsAccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	cfg.AwsSecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")
	cfg.AwsRegion = v.GetString("AWS_REGION")
	cfg.AwsS3Bucket = v.GetString("AWS_S3_BUCKET")
	cfg.AwsS3Endpoint = v.GetString("AWS_S3_ENDPOINT")
	cfg.AppName = v.GetString("APP_NAME")
	cfg.RateLimitBucketSize = v.GetInt("RATE_LIMIT_BUCKET_SIZE")
	cfg.RateLimitRefillRate = v.GetInt("RATE_LIMIT_REFILL_RATE")

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"JWT_TTL", &cfg.JwtTTL},
		{"INVOICE_DOCUMENT_LINK_TTL", &cfg.InvoiceDocumentLinkTTL},
		{"UPLOAD_URL_TTL", &cfg.UploadURLTTL},
		{"NOTIFICATION_LOOKBACK", &cfg.NotificationLookback},
		{"DEADLINE_WARNING_WINDOW", &cfg.DeadlineWarningWindow},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = parsed
	}

	if cfg.InvoicePaymentDueDays < 0 {
		return nil, fmt.Errorf("invalid INVOICE_PAYMENT_DUE_DAYS: must not be negative")
	}
	if cfg.AdminNotificationCap <= 0 {
		return nil, fmt.Errorf("invalid ADMIN_NOTIFICATION_CAP: must be positive")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
