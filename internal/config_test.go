package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hermes-agent/hermesctl/testutil"
)

func TestLoadClientConfigPrecedence(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	writeConfig(t, dir, "server_url: http://from-file:9000\n")

	tests := []struct {
		name       string
		env        string
		serverFlag string
		want       string
	}{
		{
			name: "file wins over default",
			want: "http://from-file:9000",
		},
		{
			name: "env wins over file",
			env:  "http://from-env:9001",
			want: "http://from-env:9001",
		},
		{
			name:       "flag wins over env and file",
			env:        "http://from-env:9001",
			serverFlag: "http://from-flag:9002",
			want:       "http://from-flag:9002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(envServerURL, tt.env)
			} else {
				t.Setenv(envServerURL, "")
			}
			cfg, err := LoadClientConfig(dir, tt.serverFlag)
			if err != nil {
				t.Fatalf("LoadClientConfig() error = %v", err)
			}
			if cfg.ServerURL != tt.want {
				t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, tt.want)
			}
		})
	}
}

func TestLoadClientConfigDefaults(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	t.Setenv(envServerURL, "")

	cfg, err := LoadClientConfig(dir, "")
	if err != nil {
		t.Fatalf("LoadClientConfig() on empty dir error = %v", err)
	}
	if cfg.ServerURL != defaultServerURL {
		t.Errorf("ServerURL = %q, want default %q", cfg.ServerURL, defaultServerURL)
	}
	if cfg.RequestTimeout() != defaultRequestTimeout {
		t.Errorf("RequestTimeout() = %v, want %v", cfg.RequestTimeout(), defaultRequestTimeout)
	}
}

func TestRequestTimeoutNeverZero(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"unset", 0, defaultRequestTimeout},
		{"negative", -5, defaultRequestTimeout},
		{"explicit", 45, 45 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ClientConfig{TimeoutSeconds: tt.seconds}
			if got := cfg.RequestTimeout(); got != tt.want {
				t.Errorf("RequestTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadClientConfigStripsTrailingSlash(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	t.Setenv(envServerURL, "")

	cfg, err := LoadClientConfig(dir, "http://localhost:8000///")
	if err != nil {
		t.Fatalf("LoadClientConfig() error = %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
}

func TestLoadClientConfigRejectsBadYAML(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	writeConfig(t, dir, "server_url: [not\n")

	if _, err := LoadClientConfig(dir, ""); err == nil {
		t.Fatal("LoadClientConfig() succeeded on malformed yaml")
	}
}

func TestSaveAndLoadClientConfig(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	t.Setenv(envServerURL, "")

	in := &ClientConfig{ServerURL: "https://agent.example.com", TimeoutSeconds: 30}
	if err := SaveClientConfig(dir, in); err != nil {
		t.Fatalf("SaveClientConfig() error = %v", err)
	}

	out, err := LoadClientConfig(dir, "")
	if err != nil {
		t.Fatalf("LoadClientConfig() error = %v", err)
	}
	if out.ServerURL != in.ServerURL {
		t.Errorf("ServerURL = %q, want %q", out.ServerURL, in.ServerURL)
	}
	if out.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", out.TimeoutSeconds)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	t.Setenv(envToken, "")

	if got := LoadToken(dir); got != "" {
		t.Errorf("LoadToken() = %q before login, want empty", got)
	}

	if err := SaveToken(dir, "abc123"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	if got := LoadToken(dir); got != "abc123" {
		t.Errorf("LoadToken() = %q, want abc123", got)
	}

	info, err := os.Stat(filepath.Join(dir, tokenFileName))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	if err := ClearToken(dir); err != nil {
		t.Fatalf("ClearToken() error = %v", err)
	}
	if got := LoadToken(dir); got != "" {
		t.Errorf("LoadToken() = %q after clear, want empty", got)
	}
	// Clearing twice must not fail.
	if err := ClearToken(dir); err != nil {
		t.Errorf("second ClearToken() error = %v", err)
	}
}

func TestTokenEnvOverride(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	if err := SaveToken(dir, "from-file"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	t.Setenv(envToken, "from-env")

	if got := LoadToken(dir); got != "from-env" {
		t.Errorf("LoadToken() = %q, want from-env", got)
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
