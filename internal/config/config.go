package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration, loaded from environment variables.
type Config struct {
	WatchDirs        []string
	DBPath           string
	SessionDir       string
	HTTPPort         int
	LogLevel         string
	MaxWorkers       int
	CRF              int    // x265 constant rate factor, 0-51
	Preset           string // x265 encoding preset
	OutputSuffix     string // inserted before the extension of converted files
	OutputDir        string // empty means alongside the source
	PreserveMetadata bool
	VerifyMetadata   bool
	TolerancePreset  string // strict / default / relaxed
	ProfileDir       string // YAML encoding profiles, optional
	StabilityDelay   time.Duration
	AutoSaveInterval time.Duration
	MD5ChunkSize     int64
}

// Load reads the configuration from environment variables, logging a warning
// and keeping the default for any value that fails to parse.
func Load() *Config {
	return &Config{
		WatchDirs:        splitAndTrim(getEnv("WATCH_DIRS", "/data/watch")),
		DBPath:           getEnv("DB_PATH", "/data/vid2hevc.db"),
		SessionDir:       getEnv("SESSION_DIR", "/data/sessions"),
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MaxWorkers:       getEnvInt("MAX_WORKERS", 2),
		CRF:              getEnvInt("CRF", 23),
		Preset:           getEnv("PRESET", "medium"),
		OutputSuffix:     getEnv("OUTPUT_SUFFIX", "_h265"),
		OutputDir:        getEnv("OUTPUT_DIR", ""),
		PreserveMetadata: getEnvBool("PRESERVE_METADATA", true),
		VerifyMetadata:   getEnvBool("VERIFY_METADATA", true),
		TolerancePreset:  getEnv("TOLERANCE_PRESET", "default"),
		ProfileDir:       getEnv("PROFILE_DIR", ""),
		StabilityDelay:   getEnvDuration("STABILITY_DELAY", 5*time.Second),
		AutoSaveInterval: getEnvDuration("AUTO_SAVE_INTERVAL", 5*time.Second),
		MD5ChunkSize:     getEnvInt64("MD5_CHUNK_SIZE", 4*1024*1024),
	}
}

func (c *Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		log.Printf("Warning: invalid boolean value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}
