package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEETING_BACKEND_URL", "MEETING_HTTP_TIMEOUT", "MEETING_PING_INTERVAL", "MEETING_SPEECH",
		"MEETING_LOG_FILE", "PORT", "STORE_PATH", "LOG_LEVEL", "LOG_FORMAT", "ARK_API_KEY", "Model",
		"ARK_TEMPERATURE", "ARK_MAX_TOKENS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom err: %v", err)
	}

	if cfg.Client.BackendURL != DefaultBackendURL {
		t.Errorf("BackendURL = %s, want %s", cfg.Client.BackendURL, DefaultBackendURL)
	}
	if cfg.Client.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.Client.HTTPTimeout, DefaultHTTPTimeout)
	}
	if cfg.Client.PingInterval != DefaultPingInterval {
		t.Errorf("PingInterval = %v, want %v", cfg.Client.PingInterval, DefaultPingInterval)
	}
	if cfg.Client.SpeechMode != "auto" {
		t.Errorf("SpeechMode = %s, want auto", cfg.Client.SpeechMode)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %s, want :8080", cfg.Server.Addr)
	}
	if cfg.AI.Enabled() {
		t.Error("AI should be disabled without credentials")
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "backend_url: https://meet.example.com/\nhttp_timeout: 5s\nping_interval: 10s\nspeech: log\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom err: %v", err)
	}
	if cfg.Client.BackendURL != "https://meet.example.com" {
		t.Errorf("BackendURL = %s", cfg.Client.BackendURL)
	}
	if cfg.Client.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.Client.HTTPTimeout)
	}
	if cfg.Client.SpeechMode != "log" {
		t.Errorf("SpeechMode = %s", cfg.Client.SpeechMode)
	}

	t.Setenv("MEETING_BACKEND_URL", "http://127.0.0.1:9000")
	t.Setenv("MEETING_PING_INTERVAL", "0")

	cfg, err = LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom err: %v", err)
	}
	if cfg.Client.BackendURL != "http://127.0.0.1:9000" {
		t.Errorf("env should win, got %s", cfg.Client.BackendURL)
	}
	if cfg.Client.PingInterval != 0 {
		t.Errorf("PingInterval = %v, want 0", cfg.Client.PingInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MEETING_BACKEND_URL":  "ftp://example.com",
		"MEETING_SPEECH":       "shout",
		"MEETING_HTTP_TIMEOUT": "soon",
		"PORT":                 "80 80",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := LoadFrom(""); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestServerAddrAcceptsHostPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9090")

	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("LoadFrom err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Fatalf("Addr = %s", cfg.Server.Addr)
	}
}
