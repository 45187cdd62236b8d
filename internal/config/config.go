package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueue       string
	AsynqConcurrency int

	SmartsheetToken   string
	SmartsheetBaseURL string
	SheetID           int64
	CallbackURL       string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	EmailFromName    string
	EmailFromAddress string

	Timezone *time.Location

	AdminAPIKey      string
	SettingsSeedFile string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sheetID, err := parseInt64(getEnv("SMARTSHEET_SHEET_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("SMARTSHEET_SHEET_ID must be a numeric sheet id")
	}

	tz, err := loadTimezone(getEnv("TIMEZONE", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "notifications"),
		AsynqConcurrency: getIntEnv("ASYNQ_CONCURRENCY", 10),

		SmartsheetToken:   getEnv("SMARTSHEET_TOKEN", ""),
		SmartsheetBaseURL: getEnv("SMARTSHEET_BASE_URL", "https://api.smartsheet.com/2.0"),
		SheetID:           sheetID,
		CallbackURL:       getEnv("WEBHOOK_CALLBACK_URL", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		EmailFromName:    getEnv("EMAIL_FROM_NAME", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		Timezone: tz,

		AdminAPIKey:      getEnv("ADMIN_API_KEY", ""),
		SettingsSeedFile: getEnv("SETTINGS_SEED_FILE", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseInt(trimmed, 10, 64)
}

func loadTimezone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q is not a valid IANA zone: %w", name, err)
	}
	return loc, nil
}
