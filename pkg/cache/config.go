package cache

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds settings shared by the caches
type Config struct {
	// DefaultLocale is used for missing translations and empty locale requests
	DefaultLocale string
	// LocaleCacheSize bounds the number of rendered locales kept in memory
	LocaleCacheSize int
	// LocaleCacheTTL expires rendered locales; zero keeps them until the catalog changes
	LocaleCacheTTL time.Duration

	Logger   *logrus.Logger
	Observer RefreshObserver
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLocale:   "en",
		LocaleCacheSize: 8,
		Logger:          logrus.StandardLogger(),
	}
}

func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.DefaultLocale == "" {
		out.DefaultLocale = "en"
	}
	if out.LocaleCacheSize <= 0 {
		out.LocaleCacheSize = 8
	}
	if out.Logger == nil {
		out.Logger = logrus.StandardLogger()
	}
	return &out
}
