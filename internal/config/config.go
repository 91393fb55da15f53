// Package config handles stream configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"chunkstream/internal/domain"
)

// Defaults applied by LoadFromEnv when a variable is unset.
const (
	DefaultSourcePath = "transactions.csv"
	DefaultRegion     = "us-east-1"
	DefaultChunkSize  = 10000
	DefaultDelay      = time.Second
	DefaultKeyPrefix  = "transactions"
)

// S3Config holds S3-specific connection settings. All fields are optional:
// without static keys the default AWS credential chain is used.
type S3Config struct {
	KeyID        string
	Secret       string
	Endpoint     string // custom endpoint host or URL (MinIO, Hetzner, localstack)
	UsePathStyle bool
}

// HasStaticCredentials returns true when both key ID and secret are set.
func (c *S3Config) HasStaticCredentials() bool {
	return c.KeyID != "" && c.Secret != ""
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	KeyFile string // service account JSON; empty means application default credentials
}

// AzureConfig holds Azure Blob Storage settings.
type AzureConfig struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
}

// HasCredentials returns true if either a connection string or a shared key is set.
func (c *AzureConfig) HasCredentials() bool {
	return c.ConnectionString != "" || (c.AccountName != "" && c.AccountKey != "")
}

// Config holds everything a stream run needs.
type Config struct {
	Destination string        // s3://bucket, gs://bucket, az://container, or a bare S3 bucket name
	SourcePath  string        // local CSV file with a header row
	Region      string        // object storage region
	ChunkSize   int           // max data rows per object (default 10000)
	Delay       time.Duration // pause after each upload (default 1s)
	KeyPrefix   string        // object key prefix (default "transactions")
	ObjectDir   string        // optional path prefix for object keys
	LogLevel    string        // debug, info, warn, error (default "info")
	LogFormat   string        // text, json, auto (default "auto")

	S3    S3Config
	GCS   GCSConfig
	Azure AzureConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFromEnv loads configuration from environment variables and fills defaults.
// It does not validate; call Validate once flags and profiles have been applied.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Destination: firstEnv("CHUNKSTREAM_DESTINATION", "BUCKET"),
		SourcePath:  os.Getenv("CHUNKSTREAM_SOURCE"),
		Region:      firstEnv("REGION", "AWS_REGION"),
		KeyPrefix:   os.Getenv("CHUNKSTREAM_KEY_PREFIX"),
		ObjectDir:   os.Getenv("CHUNKSTREAM_OBJECT_DIR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
		S3: S3Config{
			KeyID:    os.Getenv("KEY_ID"),
			Secret:   os.Getenv("SECRET"),
			Endpoint: os.Getenv("ENDPOINT"),
		},
		GCS: GCSConfig{
			KeyFile: os.Getenv("GCS_KEY_FILE"),
		},
		Azure: AzureConfig{
			AccountName:      os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AccountKey:       os.Getenv("AZURE_STORAGE_KEY"),
			ConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
		},
	}
	// Custom endpoints are almost always S3-compatible stores that need path-style URLs.
	cfg.S3.UsePathStyle = parseBoolEnvDefault("S3_PATH_STYLE", cfg.S3.Endpoint != "")

	// An explicit zero or negative value is kept for Validate to reject.
	cfg.ChunkSize = DefaultChunkSize
	if v := os.Getenv("CHUNKSTREAM_CHUNK_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CHUNKSTREAM_CHUNK_SIZE: %w", err)
		}
		cfg.ChunkSize = n
	}
	if v := os.Getenv("CHUNKSTREAM_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CHUNKSTREAM_DELAY: %w", err)
		}
		cfg.Delay = d
	} else {
		cfg.Delay = DefaultDelay
	}

	// Defaults
	if cfg.SourcePath == "" {
		cfg.SourcePath = DefaultSourcePath
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "auto"
	}

	return cfg, nil
}

// Validate checks that the configuration is complete and internally consistent.
// It appends non-fatal findings to Warnings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Destination) == "" {
		return domain.ErrValidation("destination is required (set --destination, CHUNKSTREAM_DESTINATION or BUCKET)")
	}
	if c.SourcePath == "" {
		return domain.ErrValidation("source path is required")
	}
	if c.ChunkSize <= 0 {
		return domain.ErrValidation("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Delay < 0 {
		return domain.ErrValidation("delay must not be negative, got %s", c.Delay)
	}
	if strings.Contains(c.KeyPrefix, "/") {
		return domain.ErrValidation("key prefix %q must not contain '/', use the object dir instead", c.KeyPrefix)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "auto":
	default:
		return domain.ErrValidation("unsupported log format %q: use 'text', 'json' or 'auto'", c.LogFormat)
	}
	if (c.S3.KeyID == "") != (c.S3.Secret == "") {
		return domain.ErrValidation("both KEY_ID and SECRET must be set together")
	}
	if strings.HasPrefix(c.Destination, "az://") && !c.Azure.HasCredentials() {
		return domain.ErrValidation("azure destination requires AZURE_STORAGE_CONNECTION_STRING or AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
	}
	if c.Delay == 0 {
		c.Warnings = append(c.Warnings, "delay is 0, chunks will be uploaded back to back")
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
