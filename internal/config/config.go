package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. It is built once in
// main and passed explicitly to the collaborators that need it.
type Config struct {
	// File paths
	DBPath string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Source settings
	Feeds       []string
	SourcePages int

	// Ingestion settings
	Interval    time.Duration
	RecentLimit int

	// Log settings
	LogLevel zerolog.Level
}

// fileConfig is the YAML layout of an optional config file. Every field is
// optional; unset fields keep their current value.
type fileConfig struct {
	DBPath string `yaml:"db_path"`
	Server struct {
		Host   string `yaml:"host"`
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`
	Source struct {
		Feeds []string `yaml:"feeds"`
		Pages int      `yaml:"pages"`
	} `yaml:"source"`
	Ingest struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		RecentLimit     int `yaml:"recent_limit"`
	} `yaml:"ingest"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns an initial configuration with hardcoded defaults
// and environment overrides applied.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DBPath:      GetEnvString("INGESTOR_DB_PATH", DefaultDBPath),
		ServerHost:  GetEnvString("INGESTOR_HOST", DefaultServerHost),
		ServerPort:  GetEnvInt("INGESTOR_PORT", DefaultServerPort),
		APIKey:      GetEnvString("INGESTOR_API_KEY", ""),
		SourcePages: GetEnvInt("INGESTOR_SOURCE_PAGES", DefaultSourcePages),
		Interval:    GetEnvDuration("INGESTOR_INTERVAL", time.Duration(DefaultInterval)*time.Minute),
		RecentLimit: GetEnvInt("INGESTOR_RECENT_LIMIT", DefaultRecentLimit),
		LogLevel:    GetEnvLogLevel("INGESTOR_LOG_LEVEL", logLevel),
	}
}

// LoadFile merges an optional YAML config file into c. Values set in the
// file override defaults but not environment variables already applied by
// DefaultConfig, so precedence is file < env < flags.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.DBPath != "" && os.Getenv("INGESTOR_DB_PATH") == "" {
		c.DBPath = fc.DBPath
	}
	if fc.Server.Host != "" && os.Getenv("INGESTOR_HOST") == "" {
		c.ServerHost = fc.Server.Host
	}
	if fc.Server.Port != 0 && os.Getenv("INGESTOR_PORT") == "" {
		c.ServerPort = fc.Server.Port
	}
	if fc.Server.APIKey != "" && os.Getenv("INGESTOR_API_KEY") == "" {
		c.APIKey = fc.Server.APIKey
	}
	if len(fc.Source.Feeds) > 0 {
		c.Feeds = fc.Source.Feeds
	}
	if fc.Source.Pages != 0 && os.Getenv("INGESTOR_SOURCE_PAGES") == "" {
		c.SourcePages = fc.Source.Pages
	}
	if fc.Ingest.IntervalMinutes != 0 && os.Getenv("INGESTOR_INTERVAL") == "" {
		c.Interval = time.Duration(fc.Ingest.IntervalMinutes) * time.Minute
	}
	if fc.Ingest.RecentLimit != 0 && os.Getenv("INGESTOR_RECENT_LIMIT") == "" {
		c.RecentLimit = fc.Ingest.RecentLimit
	}
	if fc.LogLevel != "" && os.Getenv("INGESTOR_LOG_LEVEL") == "" {
		if level, err := zerolog.ParseLevel(fc.LogLevel); err == nil {
			c.LogLevel = level
		}
	}

	return nil
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
