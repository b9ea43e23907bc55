package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/services"
)

type Config struct {
	// HTTP Server
	Port         string
	RateLimitRPS int
	CacheTTL     time.Duration

	// Database
	SQLiteDBPath string

	LogLevel string

	// Recurrence
	Timezone                   string
	SweepInterval              time.Duration
	SweepOnStart               bool
	SweepMaxDays               int
	RecurringPaymentMethod     string
	RecurringDescriptionSuffix string

	// Requests without X-User-ID act as this owner.
	DefaultOwnerID string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 20),
		CacheTTL:     getEnvDuration("CACHE_TTL", 30*time.Second),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fluxo.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		Timezone:                   getEnv("TIMEZONE", "America/Sao_Paulo"),
		SweepInterval:              getEnvDuration("SWEEP_INTERVAL", time.Hour),
		SweepOnStart:               getEnvBool("SWEEP_ON_START", true),
		SweepMaxDays:               getEnvInt("SWEEP_MAX_DAYS", services.DefaultMaxDaysPerSweep),
		RecurringPaymentMethod:     getEnv("RECURRING_PAYMENT_METHOD", string(core.PaymentPix)),
		RecurringDescriptionSuffix: os.Getenv("RECURRING_DESCRIPTION_SUFFIX"),

		DefaultOwnerID: getEnv("DEFAULT_OWNER_ID", "local"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fluxo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.SweepInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at least 1 minute", c.SweepInterval))
	} else if c.SweepInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at most 24 hours", c.SweepInterval))
	}

	if c.SweepMaxDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid sweep max days %d: must be at least 1", c.SweepMaxDays))
	}

	if !core.PaymentMethod(c.RecurringPaymentMethod).Valid() {
		errors = append(errors, fmt.Sprintf("invalid recurring payment method '%s': must be Cash, Pix, Debit or Card", c.RecurringPaymentMethod))
	}

	if strings.TrimSpace(c.DefaultOwnerID) == "" {
		errors = append(errors, "default owner id cannot be empty")
	}

	if c.RateLimitRPS < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per second", c.RateLimitRPS))
	}

	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

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

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateExport checks the settings the sheets worker cannot run without.
func (c *Config) ValidateExport() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the sheets export")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the sheets export")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the sheets export")
	}
	if len(errors) > 0 {
		return fmt.Errorf("export configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// Location resolves the canonical time zone used to decide "today".
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Materializer builds the recurrence engine settings.
func (c *Config) Materializer() (services.MaterializerConfig, error) {
	loc, err := c.Location()
	if err != nil {
		return services.MaterializerConfig{}, err
	}
	return services.MaterializerConfig{
		Location:          loc,
		PaymentMethod:     core.PaymentMethod(c.RecurringPaymentMethod),
		DescriptionSuffix: c.RecurringDescriptionSuffix,
		MaxDaysPerSweep:   c.SweepMaxDays,
	}, nil
}

// Logger builds a logger for component at the configured level.
func (c *Config) Logger(component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(c.LogLevel)
	lc.Component = component
	return log.New(lc)
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
