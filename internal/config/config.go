package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Messaging channel
	LineChannelSecret      string
	LineChannelAccessToken string
	OwnerUserID            string

	// Google Sheets
	GoogleSpreadsheetID       string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleApplicationCredFile string

	// Bot
	Timezone string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Workers
	SyncBatchSize       int
	SyncInterval        time.Duration
	ReportCheckInterval time.Duration

	// Backend selection
	DataBackend string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		OwnerUserID:            getEnv("OWNER_USER_ID", ""),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationCredFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		Timezone: getEnv("TIMEZONE", "Asia/Taipei"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kakeibo.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kakeibo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_transactions"),

		SyncBatchSize:       getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:        getEnvDuration("SYNC_INTERVAL", 30*time.Second),
		ReportCheckInterval: getEnvDuration("REPORT_CHECK_INTERVAL", time.Hour),

		DataBackend: getEnv("DATA_BACKEND", "sheets"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Channel credentials are required: the webhook cannot verify signatures
	// or answer without them
	if c.LineChannelSecret == "" {
		errors = append(errors, "LINE_CHANNEL_SECRET is required")
	}
	if c.LineChannelAccessToken == "" {
		errors = append(errors, "LINE_CHANNEL_ACCESS_TOKEN is required")
	}

	// Validate timezone
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	// Validate data backend
	validBackends := []string{"memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate Google Sheets configuration when the spreadsheet is in play.
	// The sqlite backend also needs it for the sync worker side.
	if c.DataBackend == "sheets" || c.DataBackend == "sqlite" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, fmt.Sprintf("GOOGLE_SPREADSHEET_ID is required when using %s backend", c.DataBackend))
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		hasADC := c.GoogleApplicationCredFile != ""
		if !hasJSON && !hasFile && !hasADC {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate worker configuration
	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.ReportCheckInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid report check interval %v: must be at least 1 minute", c.ReportCheckInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves the configured timezone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
