// ABOUTME: Tests for config loading, env var expansion, and validation
// ABOUTME: Covers valid/invalid YAML, missing fields, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
connection:
  resource_id: "projects/p/instances/i"
  channel_id: "chan-1"

transport:
  target: "acs.example.com:443"
  insecure: false
  keepalive_time: "60s"
  keepalive_timeout: "10s"

retry:
  max_attempts: 5
  ack_timeout: "2s"
  registration_timeout: "10s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Connection.ResourceID != "projects/p/instances/i" {
		t.Errorf("Connection.ResourceID = %q, want %q", cfg.Connection.ResourceID, "projects/p/instances/i")
	}
	if cfg.Connection.ChannelID != "chan-1" {
		t.Errorf("Connection.ChannelID = %q, want %q", cfg.Connection.ChannelID, "chan-1")
	}
	if cfg.Transport.Target != "acs.example.com:443" {
		t.Errorf("Transport.Target = %q, want %q", cfg.Transport.Target, "acs.example.com:443")
	}
	if cfg.Transport.KeepaliveTime != 60*time.Second {
		t.Errorf("Transport.KeepaliveTime = %v, want %v", cfg.Transport.KeepaliveTime, 60*time.Second)
	}
	if cfg.Transport.KeepaliveTimeout != 10*time.Second {
		t.Errorf("Transport.KeepaliveTimeout = %v, want %v", cfg.Transport.KeepaliveTimeout, 10*time.Second)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.AckTimeout != 2*time.Second {
		t.Errorf("Retry.AckTimeout = %v, want %v", cfg.Retry.AckTimeout, 2*time.Second)
	}
	if cfg.Retry.RegistrationTimeout != 10*time.Second {
		t.Errorf("Retry.RegistrationTimeout = %v, want %v", cfg.Retry.RegistrationTimeout, 10*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_RESOURCE_ID", "projects/p/instances/from-env")

	path := writeConfig(t, `
connection:
  resource_id: "${TEST_RESOURCE_ID}"
  channel_id: "chan-1"
transport:
  target: "acs.example.com:443"
retry:
  max_attempts: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Connection.ResourceID != "projects/p/instances/from-env" {
		t.Errorf("Connection.ResourceID = %q, want %q", cfg.Connection.ResourceID, "projects/p/instances/from-env")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	path := writeConfig(t, `
connection:
  resource_id: "prefix-${UNSET_VAR_FOR_TEST}-suffix"
  channel_id: "chan-1"
transport:
  target: "acs.example.com:443"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Connection.ResourceID != "prefix--suffix" {
		t.Errorf("Connection.ResourceID = %q, want %q", cfg.Connection.ResourceID, "prefix--suffix")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
connection:
  resource_id "missing colon"
`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
connection:
  resource_id: "projects/p/instances/i"
  channel_id: "chan-1"
transport:
  target: "acs.example.com:443"
retry:
  max_attempts: 5
  ack_timeout: "not-a-duration"
`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "missing transport target",
			configContent: `
connection:
  resource_id: "projects/p/instances/i"
  channel_id: "chan-1"
transport:
  target: ""
`,
			wantErrSubstr: "transport.target is required",
		},
		{
			name: "missing resource id",
			configContent: `
connection:
  resource_id: ""
  channel_id: "chan-1"
transport:
  target: "acs.example.com:443"
`,
			wantErrSubstr: "connection.resource_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.configContent)

			_, err := Load(path)
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single env var", "${FOO}", "bar"},
		{"env var with surrounding text", "prefix-${FOO}-suffix", "prefix-bar-suffix"},
		{"multiple env vars", "${FOO}/${BAZ}", "bar/qux"},
		{"no env vars", "no-vars-here", "no-vars-here"},
		{"unset env var", "${UNSET_VAR}", ""},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidate_NegativeMaxAttempts(t *testing.T) {
	cfg := Config{
		Connection: ConnectionConfig{ResourceID: "r"},
		Transport:  TransportConfig{Target: "t:443"},
		Retry:      RetryConfig{MaxAttempts: -1},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for negative max_attempts, got nil")
	}
	if !strings.Contains(err.Error(), "must not be negative") {
		t.Errorf("Validate() error = %q, want substring %q", err.Error(), "must not be negative")
	}
}
