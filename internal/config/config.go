package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	SMTP      SMTPConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port          string
	PublicBaseURL string
	LogLevel      string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig holds the notification de-duplication store settings.
type RedisConfig struct {
	Addr         string
	RecentWindow time.Duration
}

// ReportingConfig holds rendering and retention settings.
type ReportingConfig struct {
	GotenbergURL  string
	Retention     time.Duration
	RetentionCron string
	Timezone      string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Delivery over WhatsApp is disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// SMTPConfig configures the email notification channel. Disabled when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SheetsConfig configures the optional Google Sheets report ledger.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the WhatsApp channel has credentials.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" && c.PhoneNumberID != "" }

// Enabled reports whether the email channel is configured.
func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// Enabled reports whether the report ledger is configured.
func (c SheetsConfig) Enabled() bool { return c.CredentialsPath != "" && c.SpreadsheetID != "" }

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env is fine when configuration comes from the environment
		_ = godotenv.Load()
	}

	recentWindow, err := durationWithDefault("NOTIFY_RECENT_WINDOW", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	retention, err := durationWithDefault("REPORT_RETENTION", 720*time.Hour)
	if err != nil {
		return nil, err
	}
	smtpPort, err := intWithDefault("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          getenvWithDefault("APP_PORT", "8080"),
			PublicBaseURL: getenvWithDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
			LogLevel:      getenvWithDefault("LOG_LEVEL", "info"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "inventory"),
		},
		Redis: RedisConfig{
			Addr:         getenvWithDefault("REDIS_ADDR", "127.0.0.1:6379"),
			RecentWindow: recentWindow,
		},
		Reporting: ReportingConfig{
			GotenbergURL:  getenvWithDefault("GOTENBERG_URL", "http://127.0.0.1:3000"),
			Retention:     retention,
			RetentionCron: getenvWithDefault("REPORT_RETENTION_CRON", "0 3 * * *"),
			Timezone:      getenvWithDefault("TIMEZONE", "UTC"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenvWithDefault("SMTP_FROM", "no-reply@inventory.local"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Server.PublicBaseURL == "" {
		return errors.New("PUBLIC_BASE_URL must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR must be provided")
	}

	if c.Redis.RecentWindow <= 0 {
		return errors.New("NOTIFY_RECENT_WINDOW must be positive")
	}

	if c.Reporting.Retention <= 0 {
		return errors.New("REPORT_RETENTION must be positive")
	}

	if c.Reporting.RetentionCron == "" {
		return errors.New("REPORT_RETENTION_CRON must be provided")
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID == "" {
		return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided with WHATSAPP_TOKEN")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func intWithDefault(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
