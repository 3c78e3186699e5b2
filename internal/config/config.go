package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoicetools/internal/logger"
)

type Config struct {
	// Storage Configuration
	InvoiceRoot     string
	EnableWrites    bool
	NumberSeparator string

	// Locking Configuration
	LockTimeout time.Duration
	RedisURL    string
	LockTTL     time.Duration

	// Rendering Configuration
	PDFLatexPath  string
	TemplatePath  string
	RenderWorkers int

	// Export Configuration
	SheetURL              string
	SheetWorksheet        string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Metrics Configuration
	MetricsFile string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		InvoiceRoot:     getEnv("INVOICE_ROOT", ".mad_invoice"),
		EnableWrites:    getEnvBool("ENABLE_WRITES", false),
		NumberSeparator: getEnvAllowEmpty("NUMBER_SEPARATOR", "-"),
		RedisURL:        getEnv("REDIS_URL", ""),
		PDFLatexPath:    ResolvePDFLatex(getEnv("PDFLATEX_PATH", "")),
		TemplatePath:    getEnv("INVOICE_TEMPLATE", "templates/invoice.tex"),
		MetricsFile:     getEnv("METRICS_FILE", ""),

		SheetURL:              getEnv("GOOGLE_SHEET_URL", ""),
		SheetWorksheet:        getEnv("GOOGLE_SHEET_WORKSHEET", "Debitoren"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.LockTimeout, err = getEnvDuration("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if config.LockTTL, err = getEnvDuration("LOCK_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if config.RenderWorkers, err = getEnvInt("RENDER_WORKERS", 4); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.InvoiceRoot) == "" {
		return fmt.Errorf("INVOICE_ROOT must not be blank")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}
	if c.RenderWorkers < 1 {
		return fmt.Errorf("RENDER_WORKERS must be at least 1")
	}
	return nil
}

// GoogleCredentials returns the service account JSON, read from
// GOOGLE_APPLICATION_CREDENTIALS or taken inline from GOOGLE_CREDENTIALS.
// It returns nil when neither is set.
func (c *Config) GoogleCredentials() ([]byte, error) {
	if c.GoogleCredentialsFile != "" {
		creds, err := os.ReadFile(c.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	}
	if c.GoogleCredentialsJSON != "" {
		return []byte(c.GoogleCredentialsJSON), nil
	}
	return nil, nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an unset variable from one set to "".
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 5s: %w", key, err)
	}
	return d, nil
}
