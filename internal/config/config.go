package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// StoreMongo selects the MongoDB document store.
	StoreMongo = "mongodb"
	// StoreMemory selects the in-process store. Data is lost on restart.
	StoreMemory = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// StoreConfig selects the document store and how reads fan out.
type StoreConfig struct {
	Driver          string
	ListConcurrency int
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig configures the Firebase identity provider.
type AuthConfig struct {
	ProjectID       string
	CredentialsPath string
	// Disabled injects DevSubject on every request instead of verifying tokens.
	Disabled   bool
	DevSubject string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether spreadsheet export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the reporting timezone.
func (c ReportingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
	BaseURL       string
	APIVersion    string
	// OperatorNumber receives daily reports and is the only sender whose
	// commands are executed.
	OperatorNumber string
	// OperatorSubject is the subject UID that WhatsApp commands act on.
	OperatorSubject string
}

// Enabled reports whether the WhatsApp integration is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
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
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	concurrency, err := getenvInt("LIST_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}

	authDisabled, err := getenvBool("AUTH_DISABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getenvWithDefault("STORE_DRIVER", StoreMongo)),
			ListConcurrency: concurrency,
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "waterbill"),
		},
		Auth: AuthConfig{
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			CredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			Disabled:        authDisabled,
			DevSubject:      getenvWithDefault("AUTH_DEV_SUBJECT", "dev-operator"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:     os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:     os.Getenv("META_VERIFY_TOKEN"),
			AppSecret:       os.Getenv("WHATSAPP_APP_SECRET"),
			BaseURL:         getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:      getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			OperatorNumber:  os.Getenv("WHATSAPP_OPERATOR_NUMBER"),
			OperatorSubject: os.Getenv("WHATSAPP_OPERATOR_SUBJECT"),
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

	switch c.Store.Driver {
	case StoreMongo:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}

	if c.Store.ListConcurrency <= 0 {
		return errors.New("LIST_CONCURRENCY must be positive")
	}

	if c.Auth.Disabled {
		if c.Auth.DevSubject == "" {
			return errors.New("AUTH_DEV_SUBJECT must be provided when AUTH_DISABLED is set")
		}
	} else if c.Auth.ProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID must be provided")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_ID must be provided together")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := c.Reporting.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.AppSecret == "":
			return errors.New("WHATSAPP_APP_SECRET must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		case c.WhatsApp.OperatorNumber != "" && c.WhatsApp.OperatorSubject == "":
			return errors.New("WHATSAPP_OPERATOR_SUBJECT must be provided with WHATSAPP_OPERATOR_NUMBER")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
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

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
