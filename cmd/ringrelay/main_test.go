package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/ring-relay/internal/ring"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("RINGRELAY_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingCredentials verifies run fails when no Ring account is configured.
func TestRun_MissingCredentials(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
ring:
  email: ""
  password: ""

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: info
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("RINGRELAY_CONFIG", configPath)
	t.Setenv("RING_USER", "")
	t.Setenv("RING_PASSWORD", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail without account credentials")
	}
}

// TestGetConfigPath_Default verifies the default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("RINGRELAY_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("RINGRELAY_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestBuildRelayWithNilSinks verifies typed nils stay out of the relay.
func TestBuildRelayWithNilSinks(t *testing.T) {
	r := buildRelay(nil, nil)
	if r == nil {
		t.Fatal("buildRelay() returned nil")
	}
	// Must not panic with both sinks absent.
	r.HandleDing(&ring.Ding{Kind: "motion"})
}

// TestBuildHealthChecks verifies only enabled components get probes.
func TestBuildHealthChecks(t *testing.T) {
	checks := buildHealthChecks(nil, nil)
	if len(checks) != 0 {
		t.Errorf("checks = %d, want 0 for disabled sinks", len(checks))
	}
}
