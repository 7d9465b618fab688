package prepp

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config contains the tunable options of the preprocessing engine
type Config struct {
	// CacheMaxSize is the maximum number of classified lines kept in the
	// directive match cache. 0 disables the cache.
	CacheMaxSize int
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// MaxIncludeDepth bounds the number of simultaneously open include
	// files. Loop and block replay cursors are not counted. 0 means
	// unbounded.
	MaxIncludeDepth int
	// KeepBlankLines emits blank input lines as blank output lines. When
	// false they are dropped from the output entirely.
	KeepBlankLines bool
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:    256,
		LogLevel:        "info",
		MaxIncludeDepth: 100,
		KeepBlankLines:  true,
	}
}

// ConfigFromEnvironment creates a configuration from PREPP_* environment
// variables, falling back to the defaults for anything unset.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("PREPP_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	if val := os.Getenv("PREPP_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv("PREPP_MAX_INCLUDE_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil {
			config.MaxIncludeDepth = depth
		}
	}

	if val := os.Getenv("PREPP_KEEP_BLANK_LINES"); val != "" {
		config.KeepBlankLines = parseBool(val)
	}

	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}

	if c.MaxIncludeDepth < 0 {
		return errors.New("max include depth cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	return nil
}

// GetGlobalConfig returns a copy of the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger outside the lock to avoid deadlock
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
