package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	ErrMissingDBPath      = errors.New("FINANCAS_DB_PATH is required")
	ErrInvalidPort        = errors.New("FINANCAS_PORT must be a number between 1 and 65535")
	ErrMissingAMQPURL     = errors.New("FINANCAS_AMQP_URL is required when the mirror worker is enabled")
	ErrInvalidBatchSize   = errors.New("FINANCAS_MIRROR_BATCH must be greater than zero")
	ErrInvalidInterval    = errors.New("FINANCAS_MIRROR_INTERVAL must be a positive duration")
	ErrUnknownMirror      = errors.New("FINANCAS_MIRROR_BACKEND must be 'sheets' or 'memory'")
	ErrMissingSpreadsheet = errors.New("FINANCAS_SHEETS_SPREADSHEET_ID is required for the sheets backend")
)

// Config carries everything the binaries read from the environment.
type Config struct {
	DBPath string
	Port   int

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	MirrorBackend  string
	MirrorBatch    int
	MirrorInterval time.Duration

	SheetsSpreadsheetID   string
	SheetsCredentialsFile string
	SheetsTabName         string
}

// Load reads the environment and applies defaults. Validation is a
// separate step so each binary can require only what it uses.
func Load() (Config, error) {
	cfg := Config{
		DBPath:         os.Getenv("FINANCAS_DB_PATH"),
		Port:           8080,
		AMQPURL:        os.Getenv("FINANCAS_AMQP_URL"),
		AMQPExchange:   envOr("FINANCAS_AMQP_EXCHANGE", "financas"),
		AMQPQueue:      envOr("FINANCAS_AMQP_QUEUE", "financas.mirror"),
		MirrorBackend:  envOr("FINANCAS_MIRROR_BACKEND", "memory"),
		MirrorBatch:    50,
		MirrorInterval: 5 * time.Minute,

		SheetsSpreadsheetID:   os.Getenv("FINANCAS_SHEETS_SPREADSHEET_ID"),
		SheetsCredentialsFile: os.Getenv("FINANCAS_SHEETS_CREDENTIALS_FILE"),
		SheetsTabName:         envOr("FINANCAS_SHEETS_TAB", "Transações"),
	}

	if cfg.DBPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DBPath = home + "/.financas/financas.db"
		}
	}

	if v := os.Getenv("FINANCAS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %q", ErrInvalidPort, v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("FINANCAS_MIRROR_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %q", ErrInvalidBatchSize, v)
		}
		cfg.MirrorBatch = n
	}
	if v := os.Getenv("FINANCAS_MIRROR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %q", ErrInvalidInterval, v)
		}
		cfg.MirrorInterval = d
	}

	return cfg, nil
}

// Validate checks the settings every binary needs.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return ErrMissingDBPath
	}
	return nil
}

// ValidateWeb additionally checks the dashboard settings.
func (c Config) ValidateWeb() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// ValidateWorker additionally checks the mirror worker settings.
func (c Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AMQPURL == "" {
		return ErrMissingAMQPURL
	}
	if c.MirrorBatch <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MirrorInterval <= 0 {
		return ErrInvalidInterval
	}
	switch c.MirrorBackend {
	case "memory":
	case "sheets":
		if c.SheetsSpreadsheetID == "" {
			return ErrMissingSpreadsheet
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMirror, c.MirrorBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
