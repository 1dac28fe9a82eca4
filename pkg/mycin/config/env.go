package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv reads the .env file named by MYCIN_ENV (or .env by default).
// All process settings are flat env vars read after loading; a missing file
// is not an error.
func LoadEnv() {
	envFile := os.Getenv("MYCIN_ENV")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)
}

// MaxDepth bounds nested discoveries. Defaults to 64.
func MaxDepth() int {
	n, err := strconv.Atoi(os.Getenv("MYCIN_MAX_DEPTH"))
	if err != nil || n <= 0 {
		return 64
	}
	return n
}

// StrictParams makes undeclared params an error.
func StrictParams() bool {
	b, _ := strconv.ParseBool(os.Getenv("MYCIN_STRICT_PARAMS"))
	return b
}

// DBPath is the SQLite consultation database. Empty means in-memory.
func DBPath() string {
	return os.Getenv("MYCIN_DB_PATH")
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
