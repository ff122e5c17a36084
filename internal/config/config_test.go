package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:                     "8080",
		LineChannelSecret:        "secret",
		LineChannelAccessToken:   "token",
		Timezone:                 "Asia/Taipei",
		DataBackend:              "sheets",
		GoogleSpreadsheetID:      "1abc",
		GoogleServiceAccountJSON: `{"type":"service_account"}`,
		SyncBatchSize:            10,
		SyncInterval:             30 * time.Second,
		ReportCheckInterval:      time.Hour,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{
			name:   "valid sheets backend config",
			mutate: func(c *Config) {},
		},
		{
			name: "valid memory backend without Google config",
			mutate: func(c *Config) {
				c.DataBackend = "memory"
				c.GoogleSpreadsheetID = ""
				c.GoogleServiceAccountJSON = ""
			},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "missing channel secret",
			mutate:      func(c *Config) { c.LineChannelSecret = "" },
			errorString: "LINE_CHANNEL_SECRET is required",
		},
		{
			name:        "missing channel access token",
			mutate:      func(c *Config) { c.LineChannelAccessToken = "" },
			errorString: "LINE_CHANNEL_ACCESS_TOKEN is required",
		},
		{
			name:        "invalid timezone",
			mutate:      func(c *Config) { c.Timezone = "Mars/Olympus" },
			errorString: "invalid timezone 'Mars/Olympus'",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "postgres" },
			errorString: "invalid data backend 'postgres'",
		},
		{
			name:        "sheets backend missing spreadsheet ID",
			mutate:      func(c *Config) { c.GoogleSpreadsheetID = "" },
			errorString: "GOOGLE_SPREADSHEET_ID is required when using sheets backend",
		},
		{
			name:        "sheets backend missing credentials",
			mutate:      func(c *Config) { c.GoogleServiceAccountJSON = "" },
			errorString: "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided",
		},
		{
			name: "sheets backend with non-existent service account file",
			mutate: func(c *Config) {
				c.GoogleServiceAccountJSON = ""
				c.GoogleServiceAccountFile = "/non/existent/sa.json"
			},
			errorString: "Google service account file does not exist",
		},
		{
			name: "sqlite backend missing database path",
			mutate: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = ""
			},
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name:        "invalid AMQP URL scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			errorString: "invalid AMQP URL scheme 'http': must be 'amqp' or 'amqps'",
		},
		{
			name: "AMQP URL without queue",
			mutate: func(c *Config) {
				c.AMQPURL = "amqp://localhost:5672/"
				c.AMQPQueue = ""
			},
			errorString: "AMQP queue name cannot be empty when AMQP URL is provided",
		},
		{
			name:        "invalid sync batch size",
			mutate:      func(c *Config) { c.SyncBatchSize = 0 },
			errorString: "invalid sync batch size 0: must be at least 1",
		},
		{
			name:        "invalid sync interval",
			mutate:      func(c *Config) { c.SyncInterval = 500 * time.Millisecond },
			errorString: "invalid sync interval 500ms: must be at least 1 second",
		},
		{
			name:        "invalid report check interval",
			mutate:      func(c *Config) { c.ReportCheckInterval = time.Second },
			errorString: "invalid report check interval 1s: must be at least 1 minute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Errorf("Config.Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Config.Validate() error = nil, want error containing %q", tt.errorString)
			}
			if !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.errorString)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.LineChannelSecret = ""
	cfg.DataBackend = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"invalid port", "LINE_CHANNEL_SECRET", "invalid data backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "LINE_CHANNEL_SECRET", "LINE_CHANNEL_ACCESS_TOKEN", "OWNER_USER_ID",
		"GOOGLE_SPREADSHEET_ID", "TIMEZONE", "DATA_BACKEND", "SQLITE_DB_PATH",
		"AMQP_URL", "SYNC_BATCH_SIZE", "SYNC_INTERVAL", "REPORT_CHECK_INTERVAL",
	}
	originalVars := map[string]string{}
	for _, key := range keys {
		originalVars[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	defer func() {
		for key, value := range originalVars {
			if value != "" {
				os.Setenv(key, value)
			} else {
				os.Unsetenv(key)
			}
		}
	}()

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8080" {
			t.Errorf("Load() Port = %v, want 8080", cfg.Port)
		}
		if cfg.Timezone != "Asia/Taipei" {
			t.Errorf("Load() Timezone = %v, want Asia/Taipei", cfg.Timezone)
		}
		if cfg.DataBackend != "sheets" {
			t.Errorf("Load() DataBackend = %v, want sheets", cfg.DataBackend)
		}
		if cfg.SyncBatchSize != 10 {
			t.Errorf("Load() SyncBatchSize = %v, want 10", cfg.SyncBatchSize)
		}
		if cfg.ReportCheckInterval != time.Hour {
			t.Errorf("Load() ReportCheckInterval = %v, want 1h", cfg.ReportCheckInterval)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		os.Setenv("PORT", "9090")
		os.Setenv("LINE_CHANNEL_SECRET", "s3cret")
		os.Setenv("TIMEZONE", "Europe/Rome")
		os.Setenv("DATA_BACKEND", "sqlite")
		os.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		os.Setenv("SYNC_INTERVAL", "45s")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.LineChannelSecret != "s3cret" {
			t.Errorf("Load() LineChannelSecret = %v, want s3cret", cfg.LineChannelSecret)
		}
		if cfg.Timezone != "Europe/Rome" {
			t.Errorf("Load() Timezone = %v, want Europe/Rome", cfg.Timezone)
		}
		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if cfg.SyncInterval != 45*time.Second {
			t.Errorf("Load() SyncInterval = %v, want 45s", cfg.SyncInterval)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		os.Setenv("SYNC_BATCH_SIZE", "invalid")
		os.Setenv("SYNC_INTERVAL", "invalid")

		cfg := Load()

		if cfg.SyncBatchSize != 10 {
			t.Errorf("Load() SyncBatchSize = %v, want 10 (default for invalid input)", cfg.SyncBatchSize)
		}
		if cfg.SyncInterval != 30*time.Second {
			t.Errorf("Load() SyncInterval = %v, want 30s (default for invalid input)", cfg.SyncInterval)
		}
	})
}
