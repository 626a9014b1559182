package appconfig

import (
	"os"
	"strconv"
	"time"
)

// Config holds server settings read from the environment.
type Config struct {
	Port         string
	SnapshotPath string
	RulesPath    string
	AssetDir     string
	TickInterval time.Duration
}

// NewConfigFromEnv reads TALLY_* environment variables (with defaults).
func NewConfigFromEnv() Config {
	tickSec, err := strconv.Atoi(getEnv("TALLY_TICK_SEC", "1"))
	if err != nil || tickSec < 1 {
		tickSec = 1
	}
	return Config{
		Port:         getEnv("TALLY_PORT", "8080"),
		SnapshotPath: getEnv("TALLY_SNAPSHOT_PATH", "tabletally.db"),
		RulesPath:    getEnv("TALLY_RULES_PATH", "rules.yaml"),
		AssetDir:     getEnv("TALLY_ASSET_DIR", ""),
		TickInterval: time.Duration(tickSec) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
