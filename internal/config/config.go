// Package config reads runtime settings from DELEGATE_* environment
// variables and an optional .env file.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Backend names accepted by DELEGATE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
}

// Config holds every runtime setting.
type Config struct {
	Backend     string
	DBPath      string
	DataDir     string
	PostgresDSN string
	S3          S3Config
	SeedDir     string // empty means the embedded seed
	Demo        bool
	LogLevel    slog.Level
	LogCalls    bool
	MetricsFile string
}

// DefaultConfig stores state in ~/.delegate with SQLite.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".delegate")
	return Config{
		Backend:  BackendSQLite,
		DBPath:   filepath.Join(dataDir, "delegate.db"),
		DataDir:  dataDir,
		S3:       S3Config{Region: "us-east-1", Prefix: "delegate"},
		LogLevel: slog.LevelWarn,
	}
}

// LoadConfig loads .env (if present) and then applies environment
// overrides on top of DefaultConfig. Invalid values are ignored.
func LoadConfig() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv applies environment overrides without touching .env.
func FromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("DELEGATE_BACKEND"); v != "" {
		switch b := strings.ToLower(v); b {
		case BackendSQLite, BackendFile, BackendPostgres, BackendS3, BackendMemory:
			cfg.Backend = b
		}
	}
	if v := os.Getenv("DELEGATE_DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.DBPath = filepath.Join(v, "delegate.db")
	}
	if v := os.Getenv("DELEGATE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("DELEGATE_PG_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("DELEGATE_S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if v := os.Getenv("DELEGATE_S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
	if v := os.Getenv("DELEGATE_S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v, ok := os.LookupEnv("DELEGATE_S3_PREFIX"); ok {
		cfg.S3.Prefix = v
	}
	if v := os.Getenv("DELEGATE_S3_PATH_STYLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.S3.PathStyle = b
		}
	}
	if v := os.Getenv("DELEGATE_SEED_DIR"); v != "" {
		cfg.SeedDir = v
	}
	if v := os.Getenv("DELEGATE_DEMO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Demo = b
		}
	}
	if v := os.Getenv("DELEGATE_LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			cfg.LogLevel = lvl
		}
	}
	if v := os.Getenv("DELEGATE_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("DELEGATE_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}

	return cfg
}
