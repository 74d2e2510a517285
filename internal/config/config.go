// ABOUTME: Centralized configuration for the converse memory subsystem
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Config holds all configuration for the memory subsystem
type Config struct {
	// Storage settings
	DataDir  string
	LogLevel string

	// OpenAI settings
	OpenAIKey  string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Topic tracking settings
	ClassifyThreshold float64

	// Context assembly character budgets
	FactBudget        int
	PersonalityBudget int
	EmotionBudget     int
	SummaryBudget     int
	KnowledgeBudget   int
	TotalBudget       int
}

// DefaultDataDir returns the XDG data directory for the store.
// XDG_DATA_HOME is respected so tests can redirect storage.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "converse")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:           getEnv("CONVERSE_DATA_DIR", DefaultDataDir()),
		LogLevel:          getEnv("CONVERSE_LOG_LEVEL", "info"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		ChatModel:         getEnv("CONVERSE_OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:           getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:        getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:        getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		ClassifyThreshold: getEnvFloat("CONVERSE_TOPIC_THRESHOLD", 0.5),
		FactBudget:        getEnvInt("CONVERSE_FACT_BUDGET", 600),
		PersonalityBudget: getEnvInt("CONVERSE_PERSONALITY_BUDGET", 800),
		EmotionBudget:     getEnvInt("CONVERSE_EMOTION_BUDGET", 200),
		SummaryBudget:     getEnvInt("CONVERSE_SUMMARY_BUDGET", 400),
		KnowledgeBudget:   getEnvInt("CONVERSE_KNOWLEDGE_BUDGET", 1200),
		TotalBudget:       getEnvInt("CONVERSE_TOTAL_BUDGET", 6000),
	}

	return cfg, cfg.Validate()
}

// DBPath returns the sqlite database file path
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "converse.db")
}

// BackupPath returns the flat-file backup path used by the degraded store
func (c *Config) BackupPath() string {
	return filepath.Join(c.DataDir, "converse-backup.json")
}

func (c *Config) Validate() error {
	if c.ClassifyThreshold < 0 || c.ClassifyThreshold > 1 {
		return fmt.Errorf("CONVERSE_TOPIC_THRESHOLD must be 0-1, got %f", c.ClassifyThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.TotalBudget <= 0 {
		return fmt.Errorf("CONVERSE_TOTAL_BUDGET must be positive, got %d", c.TotalBudget)
	}
	for name, budget := range map[string]int{
		"CONVERSE_FACT_BUDGET":        c.FactBudget,
		"CONVERSE_PERSONALITY_BUDGET": c.PersonalityBudget,
		"CONVERSE_EMOTION_BUDGET":     c.EmotionBudget,
		"CONVERSE_SUMMARY_BUDGET":     c.SummaryBudget,
		"CONVERSE_KNOWLEDGE_BUDGET":   c.KnowledgeBudget,
	} {
		if budget < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, budget)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
