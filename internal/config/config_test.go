package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalEnvYAML = `
server:
  port: "8080"
weather_api:
  url: "https://api.example.com/v1/forecast"
  timeout: "2s"
request:
  timeout: "5s"
reliability:
  retry_max_attempts: 3
  retry_base_delay: "100ms"
  retry_max_delay: "2s"
  rate_limit_rps: 5
  rate_limit_burst: 10
shutdown:
  timeout: "10s"
`

// inConfigDir writes config/dev.yaml (and optionally .env) into a temp dir and
// chdirs there for the duration of the test.
func inConfigDir(t *testing.T, yamlContent, dotenv string) {
	t.Helper()
	t.Setenv("ENV_NAME", "dev")
	dir := t.TempDir()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if dotenv != "" {
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0644); err != nil {
			t.Fatalf("write .env: %v", err)
		}
	}

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
}

// TestLoad_Minimal verifies that a minimal file loads with defaults for every omitted section.
func TestLoad_Minimal(t *testing.T) {
	inConfigDir(t, minimalEnvYAML, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIURL != "https://api.example.com/v1/forecast" {
		t.Errorf("WeatherAPIURL = %q", cfg.WeatherAPIURL)
	}
	if cfg.WeatherAPITimezone != "GMT" {
		t.Errorf("WeatherAPITimezone = %q, want GMT", cfg.WeatherAPITimezone)
	}
	if cfg.PVInstalledPowerKW != 2.5 || cfg.PVEfficiency != 0.2 {
		t.Errorf("PV = (%v, %v), want (2.5, 0.2)", cfg.PVInstalledPowerKW, cfg.PVEfficiency)
	}
	if !cfg.CircuitBreakerEnabled || cfg.CircuitBreakerFailureThreshold != 5 {
		t.Errorf("circuit breaker = (%v, %d), want (true, 5)", cfg.CircuitBreakerEnabled, cfg.CircuitBreakerFailureThreshold)
	}
	if cfg.CoalesceTimeout != 5*time.Second {
		t.Errorf("CoalesceTimeout = %v, want 5s", cfg.CoalesceTimeout)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Errorf("rate limit = (%d, %d), want (5, 10)", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

// TestLoad_EnvFileNotFound verifies that a missing config/{ENV_NAME}.yaml is an error.
func TestLoad_EnvFileNotFound(t *testing.T) {
	inConfigDir(t, minimalEnvYAML, "")
	t.Setenv("ENV_NAME", "nonexistent")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing config file, got nil")
	}
	if cfg != nil {
		t.Errorf("Load() expected nil config on error")
	}
	if !strings.Contains(err.Error(), "nonexistent.yaml") {
		t.Errorf("Load() error = %v, want path in message", err)
	}
}

// TestLoad_InvalidConfigYAML verifies that malformed YAML is rejected.
func TestLoad_InvalidConfigYAML(t *testing.T) {
	inConfigDir(t, "server: [unclosed", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

// TestLoad_DurationFallbacks verifies that empty and unparsable durations fall back to defaults.
func TestLoad_DurationFallbacks(t *testing.T) {
	yaml := minimalEnvYAML + `
lifecycle:
  overload_window: "not-a-duration"
  degraded_window: ""
circuit_breaker:
  timeout: "-5s"
`
	inConfigDir(t, yaml, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OverloadWindow != 60*time.Second {
		t.Errorf("OverloadWindow = %v, want 60s", cfg.OverloadWindow)
	}
	if cfg.DegradedWindow != 60*time.Second {
		t.Errorf("DegradedWindow = %v, want 60s", cfg.DegradedWindow)
	}
	if cfg.CircuitBreakerTimeout != 30*time.Second {
		t.Errorf("CircuitBreakerTimeout = %v, want 30s", cfg.CircuitBreakerTimeout)
	}
}

// TestLoad_RequestTimeoutRaised verifies that the request timeout is kept above the upstream timeout.
func TestLoad_RequestTimeoutRaised(t *testing.T) {
	yaml := strings.Replace(minimalEnvYAML, `timeout: "5s"`, `timeout: "1s"`, 1)
	inConfigDir(t, yaml, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v, want 3s (upstream 2s + 1s)", cfg.RequestTimeout)
	}
}

// TestLoad_ValidationErrors verifies that invalid values fail validation.
func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{"zero upstream timeout", "", "weather_api.timeout"},
		{"efficiency above one", "pv:\n  efficiency: 1.5\n", "pv.efficiency"},
		{"zero efficiency", "pv:\n  efficiency: 0\n", "pv.efficiency"},
		{"negative power", "pv:\n  installed_power_kw: -1\n", "pv.installed_power_kw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := minimalEnvYAML + tt.extra
			if tt.name == "zero upstream timeout" {
				yaml = strings.Replace(yaml, `timeout: "2s"`, `timeout: "0s"`, 1)
			}
			inConfigDir(t, yaml, "")

			cfg, err := Load()
			if err == nil {
				t.Fatalf("Load() expected error, got config %+v", cfg)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

// TestLoad_EnvOverrides verifies that SOLAR_* variables override the YAML file.
func TestLoad_EnvOverrides(t *testing.T) {
	inConfigDir(t, minimalEnvYAML, "")
	t.Setenv("SOLAR_SERVER_PORT", "9090")
	t.Setenv("SOLAR_WEATHER_API_TIMEZONE", "Europe/Warsaw")
	t.Setenv("SOLAR_PV_EFFICIENCY", "0.25")
	t.Setenv("SOLAR_CIRCUIT_BREAKER_ENABLED", "false")
	t.Setenv("SOLAR_RELIABILITY_RATE_LIMIT_RPS", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.WeatherAPITimezone != "Europe/Warsaw" {
		t.Errorf("WeatherAPITimezone = %q, want Europe/Warsaw", cfg.WeatherAPITimezone)
	}
	if cfg.PVEfficiency != 0.25 {
		t.Errorf("PVEfficiency = %v, want 0.25", cfg.PVEfficiency)
	}
	if cfg.CircuitBreakerEnabled {
		t.Error("CircuitBreakerEnabled = true, want false from env")
	}
	if cfg.RateLimitRPS != 42 {
		t.Errorf("RateLimitRPS = %d, want 42", cfg.RateLimitRPS)
	}
}

// TestLoad_InvalidEnvOverride verifies that an unparsable override is reported.
func TestLoad_InvalidEnvOverride(t *testing.T) {
	inConfigDir(t, minimalEnvYAML, "")
	t.Setenv("SOLAR_PV_INSTALLED_POWER_KW", "lots")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "environment overrides") {
		t.Errorf("Load() error = %v, want environment override error", err)
	}
}

// TestLoad_DotEnv verifies that a .env file in the working directory feeds overrides.
func TestLoad_DotEnv(t *testing.T) {
	inConfigDir(t, minimalEnvYAML, "SOLAR_PV_INSTALLED_POWER_KW=4.2\n")
	// godotenv never overwrites variables already present; Setenv registers the restore.
	t.Setenv("SOLAR_PV_INSTALLED_POWER_KW", "")
	os.Unsetenv("SOLAR_PV_INSTALLED_POWER_KW")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PVInstalledPowerKW != 4.2 {
		t.Errorf("PVInstalledPowerKW = %v, want 4.2 from .env", cfg.PVInstalledPowerKW)
	}
}

// TestLoad_ProjectDevConfig verifies that the checked-in config/dev.yaml loads.
func TestLoad_ProjectDevConfig(t *testing.T) {
	root := findProjectRoot(t)
	data, err := os.ReadFile(filepath.Join(root, "config", "dev.yaml"))
	if err != nil {
		t.Fatalf("read dev.yaml: %v", err)
	}
	inConfigDir(t, string(data), "")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() with project dev.yaml error = %v", err)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("config/dev.yaml not found (run tests from project root)")
		}
		dir = parent
	}
}
