package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Sheets     SheetsConfig
	Notifier   NotifierConfig
	StockWatch StockWatchConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to export reports to Google
// Sheets. Leaving both fields empty disables the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// NotifierConfig contains the webhook used for low stock alerts. An empty
// URL disables alert delivery.
type NotifierConfig struct {
	WebhookURL string
	AuthToken  string
}

// Enabled reports whether alert delivery is configured.
func (c NotifierConfig) Enabled() bool {
	return c.WebhookURL != ""
}

// StockWatchConfig holds the cron schedules of the periodic jobs.
type StockWatchConfig struct {
	AlertCronSchedule  string
	ReportCronSchedule string
	Timezone           string
}

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
		// Missing .env files are acceptable when configuration comes from
		// the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "progiteck"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
		Notifier: NotifierConfig{
			WebhookURL: os.Getenv("ALERT_WEBHOOK_URL"),
			AuthToken:  os.Getenv("ALERT_WEBHOOK_TOKEN"),
		},
		StockWatch: StockWatchConfig{
			AlertCronSchedule:  getenvWithDefault("STOCK_ALERT_CRON_SCHEDULE", "0 * * * *"),
			ReportCronSchedule: getenvWithDefault("DAILY_REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:           getenvWithDefault("TIMEZONE", "Africa/Abidjan"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated. The
// sheets export and the alert webhook are optional collaborators; the engine
// runs without them.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_EXPORT_ID must be provided when sheets credentials are set")
	}

	if c.StockWatch.AlertCronSchedule == "" {
		return errors.New("STOCK_ALERT_CRON_SCHEDULE must be provided")
	}

	if c.StockWatch.ReportCronSchedule == "" {
		return errors.New("DAILY_REPORT_CRON_SCHEDULE must be provided")
	}

	if c.StockWatch.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
