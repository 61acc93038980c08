// Package config loads server configuration from environment variables.
package config

import "os"

// Config holds server configuration.
type Config struct {
	Port           string
	LogLevel       string
	AuthSecret     string
	ContractBundle string // optional YAML contract catalog; built-in defaults when empty
	EventLogPath   string // optional sqlite event log; in-memory only when empty
	OTLPEndpoint   string // optional trace exporter endpoint; tracing disabled when empty
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	return &Config{
		Port:           port,
		LogLevel:       logLevel,
		AuthSecret:     os.Getenv("AUTH_SECRET"),
		ContractBundle: os.Getenv("CONTRACT_BUNDLE"),
		EventLogPath:   os.Getenv("EVENT_LOG_PATH"),
		OTLPEndpoint:   os.Getenv("OTLP_ENDPOINT"),
	}
}
