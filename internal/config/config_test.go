package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv pins every config variable to empty for the test so ambient
// environment cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configFileEnv,
		"SERVER_HOST", "SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT", "SERVER_REQUEST_TIMEOUT",
		"UPLOAD_MAX_FILE_SIZE", "UPLOAD_MAX_ROWS",
		"INFERENCE_ACCEPTANCE_THRESHOLD",
		"SESSION_TTL", "SESSION_SWEEP_INTERVAL",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS_PER_MINUTE",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Upload.MaxFileSize != 20971520 || cfg.Upload.MaxRows != 100000 {
		t.Errorf("upload defaults: %+v", cfg.Upload)
	}
	if cfg.Inference.AcceptanceThreshold != 1.0 {
		t.Errorf("AcceptanceThreshold = %g", cfg.Inference.AcceptanceThreshold)
	}
	if cfg.Session.TTL != 2*time.Hour || cfg.Session.SweepInterval != 10*time.Minute {
		t.Errorf("session defaults: %+v", cfg.Session)
	}
	if !cfg.Rate.Enabled || cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("rate defaults: %+v", cfg.Rate)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging defaults: %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("INFERENCE_ACCEPTANCE_THRESHOLD", "0.9")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Inference.AcceptanceThreshold != 0.9 {
		t.Errorf("AcceptanceThreshold = %g", cfg.Inference.AcceptanceThreshold)
	}
	if cfg.Rate.Enabled {
		t.Error("rate limiting should be disabled")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
}

func TestLoad_YAMLFileUnderEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
  host: 127.0.0.1
inference:
  acceptance_threshold: 0.8
logging:
  format: json
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configFileEnv, path)
	// Environment beats the file.
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, env override must win over the file", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, file must win over the default", cfg.Server.Host)
	}
	if cfg.Inference.AcceptanceThreshold != 0.8 {
		t.Errorf("AcceptanceThreshold = %g", cfg.Inference.AcceptanceThreshold)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
	// Fields the file omits keep their defaults.
	if cfg.Upload.MaxRows != 100000 {
		t.Errorf("MaxRows = %d", cfg.Upload.MaxRows)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid SERVER_PORT")
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "0")
	t.Setenv("INFERENCE_ACCEPTANCE_THRESHOLD", "1.5")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"SERVER_PORT", "INFERENCE_ACCEPTANCE_THRESHOLD", "LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %s", err, want)
		}
	}
}

func TestServerConfig_Addr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"", 9090, ":9090"},
		{"localhost", 80, "localhost:80"},
	}
	for _, tt := range tests {
		c := ServerConfig{Host: tt.host, Port: tt.port}
		if got := c.Addr(); got != tt.want {
			t.Errorf("Addr(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}
