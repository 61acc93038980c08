package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("expected default log level INFO, got %s", cfg.LogLevel)
	}
	if cfg.EventLogPath != "" {
		t.Errorf("event log should default to disabled, got %s", cfg.EventLogPath)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONTRACT_BUNDLE", "/etc/skymaintain/contracts.yaml")
	t.Setenv("EVENT_LOG_PATH", "/var/lib/skymaintain/events.db")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.ContractBundle != "/etc/skymaintain/contracts.yaml" {
		t.Errorf("unexpected bundle path %s", cfg.ContractBundle)
	}
	if cfg.EventLogPath != "/var/lib/skymaintain/events.db" {
		t.Errorf("unexpected event log path %s", cfg.EventLogPath)
	}
}
