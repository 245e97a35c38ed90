package config

import "testing"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PULSE_GATEWAY_URL", "")
	t.Setenv("PULSE_TEMPERATURE", "")
	t.Setenv("PULSE_API_URL", "")
	t.Setenv("PULSE_REMOTE_SYNC", "")
	t.Setenv("PULSE_SNAPSHOT_PATH", "")
	t.Setenv("PULSE_AUTH_TOKEN", "")

	cfg := LoadConfig()

	if cfg.Gateway.BaseURL != "http://localhost:8000" {
		t.Errorf("gateway url: got %s", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Temperature != 0.7 {
		t.Errorf("temperature: got %v", cfg.Gateway.Temperature)
	}
	if cfg.Remote.BaseURL != "http://localhost:3000/api" {
		t.Errorf("remote url: got %s", cfg.Remote.BaseURL)
	}
	if cfg.Remote.Enabled {
		t.Error("remote sync should default to off")
	}
	if cfg.Snapshot.Path != "" {
		t.Errorf("snapshot path: got %s", cfg.Snapshot.Path)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PULSE_GATEWAY_URL", "http://gw.internal:9000")
	t.Setenv("PULSE_TEMPERATURE", "1.2")
	t.Setenv("PULSE_API_URL", "https://api.example.com")
	t.Setenv("PULSE_REMOTE_SYNC", "true")
	t.Setenv("PULSE_SNAPSHOT_PATH", "/tmp/state.db")
	t.Setenv("PULSE_AUTH_TOKEN", "tok")

	cfg := LoadConfig()

	if cfg.Gateway.BaseURL != "http://gw.internal:9000" {
		t.Errorf("gateway url: got %s", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.Temperature != 1.2 {
		t.Errorf("temperature: got %v", cfg.Gateway.Temperature)
	}
	if !cfg.Remote.Enabled {
		t.Error("remote sync should be on")
	}
	if cfg.Snapshot.Path != "/tmp/state.db" {
		t.Errorf("snapshot path: got %s", cfg.Snapshot.Path)
	}
	if cfg.Auth.Token != "tok" {
		t.Errorf("token: got %s", cfg.Auth.Token)
	}
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PULSE_TEMPERATURE", "warm")
	t.Setenv("PULSE_REMOTE_SYNC", "maybe")

	cfg := LoadConfig()

	if cfg.Gateway.Temperature != 0.7 {
		t.Errorf("temperature should fall back to default, got %v", cfg.Gateway.Temperature)
	}
	if cfg.Remote.Enabled {
		t.Error("unparseable boolean should fall back to default")
	}
}
