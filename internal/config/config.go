package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"scadenze/internal/core"
	"scadenze/internal/recurrence"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string

	// Backend selection
	DataBackend string
	DataDir     string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Reminder worker
	ReminderInterval      time.Duration
	ReminderLookaheadDays int

	// Engine memo and source read cache
	CacheTTL time.Duration

	LogLevel string

	// Detection tuning; DETECTION_CONFIG_FILE values sit under env overrides.
	DetectionConfigFile string
	Detection           Detection

	fileErr error
}

// Detection mirrors recurrence.Options in file- and env-friendly units.
type Detection struct {
	MinOccurrences  int     `toml:"min_occurrences"`
	BucketWidth     float64 `toml:"bucket_width"` // currency units; <= 0 means exact amount
	ToleranceDays   float64 `toml:"tolerance_days"`
	MinConsistency  float64 `toml:"min_consistency"`
	AcceptanceMode  string  `toml:"acceptance_mode"`
	IncludeIncome   bool    `toml:"include_income"`
	ProjectInactive bool    `toml:"project_inactive"`
}

// DefaultDetection matches recurrence.DefaultOptions.
func DefaultDetection() Detection {
	d := recurrence.DefaultOptions()
	return Detection{
		MinOccurrences:  d.MinOccurrences,
		BucketWidth:     float64(d.BucketWidth) / 100,
		ToleranceDays:   d.ToleranceDays,
		MinConsistency:  d.MinConsistency,
		AcceptanceMode:  string(d.Acceptance),
		IncludeIncome:   false,
		ProjectInactive: d.ProjectInactive,
	}
}

// Options converts the tuning into engine options.
func (d Detection) Options() recurrence.Options {
	types := []core.TransactionType{core.Expense}
	if d.IncludeIncome {
		types = append(types, core.Income)
	}
	return recurrence.Options{
		MinOccurrences:  d.MinOccurrences,
		BucketWidth:     int64(math.Round(d.BucketWidth * 100)),
		ToleranceDays:   d.ToleranceDays,
		MinConsistency:  d.MinConsistency,
		Acceptance:      recurrence.AcceptanceMode(strings.ToLower(strings.TrimSpace(d.AcceptanceMode))),
		Types:           types,
		ProjectInactive: d.ProjectInactive,
	}
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/scadenze.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "scadenze"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "bill_due"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ReminderInterval:      getEnvDuration("REMINDER_INTERVAL", time.Hour),
		ReminderLookaheadDays: getEnvInt("REMINDER_LOOKAHEAD_DAYS", 3),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DetectionConfigFile: getEnv("DETECTION_CONFIG_FILE", ""),
		Detection:           DefaultDetection(),
	}

	if cfg.DetectionConfigFile != "" {
		if _, err := toml.DecodeFile(cfg.DetectionConfigFile, &cfg.Detection); err != nil {
			cfg.fileErr = fmt.Errorf("read detection config %s: %w", cfg.DetectionConfigFile, err)
		}
	}
	cfg.Detection = applyDetectionEnv(cfg.Detection)

	return cfg
}

func applyDetectionEnv(d Detection) Detection {
	d.MinOccurrences = getEnvInt("MIN_OCCURRENCES", d.MinOccurrences)
	d.BucketWidth = getEnvFloat("BUCKET_WIDTH", d.BucketWidth)
	d.ToleranceDays = getEnvFloat("TOLERANCE_DAYS", d.ToleranceDays)
	d.MinConsistency = getEnvFloat("MIN_CONSISTENCY", d.MinConsistency)
	d.AcceptanceMode = getEnv("ACCEPTANCE_MODE", d.AcceptanceMode)
	d.IncludeIncome = getEnvBool("INCLUDE_INCOME", d.IncludeIncome)
	d.ProjectInactive = getEnvBool("PROJECT_INACTIVE", d.ProjectInactive)
	return d
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.fileErr != nil {
		errors = append(errors, c.fileErr.Error())
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
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

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
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
	}

	if c.DataBackend == "memory" && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using memory backend")
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

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ReminderInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 second", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}
	if c.ReminderLookaheadDays < 0 || c.ReminderLookaheadDays > recurrence.MaxRangeDays {
		errors = append(errors, fmt.Sprintf("invalid reminder lookahead %d: must be between 0 and %d days", c.ReminderLookaheadDays, recurrence.MaxRangeDays))
	}

	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: cannot be negative", c.CacheTTL))
	}

	if err := c.Detection.Options().Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			errors = append(errors, "detection: "+line)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
