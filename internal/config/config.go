package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SOLAR_SERVER_PORT.
const EnvPrefix = "SOLAR"

// Config holds service configuration loaded from YAML, .env and environment overrides.
type Config struct {
	ServerPort string

	WeatherAPIURL      string
	WeatherAPITimeout  time.Duration
	WeatherAPITimezone string

	RequestTimeout  time.Duration
	CoalesceTimeout time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerTimeout          time.Duration
	CircuitBreakerMaxHalfOpen      int

	PVInstalledPowerKW float64
	PVEfficiency       float64

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	OverloadWindow       time.Duration
	OverloadThresholdPct int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	DegradedRetryInitial time.Duration
	DegradedRetryMax     time.Duration
}

// fileConfig mirrors config/{ENV_NAME}.yaml. envconfig tags name the override
// below EnvPrefix; nested sections join with "_" (SOLAR_WEATHER_API_TIMEOUT).
type fileConfig struct {
	Server struct {
		Port string `yaml:"port" envconfig:"PORT"`
	} `yaml:"server" envconfig:"SERVER"`

	WeatherAPI struct {
		URL      string `yaml:"url" envconfig:"URL"`
		Timeout  string `yaml:"timeout" envconfig:"TIMEOUT"`
		Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`
	} `yaml:"weather_api" envconfig:"WEATHER_API"`

	Request struct {
		Timeout         string `yaml:"timeout" envconfig:"TIMEOUT"`
		CoalesceTimeout string `yaml:"coalesce_timeout" envconfig:"COALESCE_TIMEOUT"`
	} `yaml:"request" envconfig:"REQUEST"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts" envconfig:"RETRY_MAX_ATTEMPTS"`
		RetryBaseDelay   string `yaml:"retry_base_delay" envconfig:"RETRY_BASE_DELAY"`
		RetryMaxDelay    string `yaml:"retry_max_delay" envconfig:"RETRY_MAX_DELAY"`
		RateLimitRPS     int    `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
		RateLimitBurst   int    `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
	} `yaml:"reliability" envconfig:"RELIABILITY"`

	CircuitBreaker struct {
		Enabled          *bool  `yaml:"enabled" envconfig:"ENABLED"`
		FailureThreshold int    `yaml:"failure_threshold" envconfig:"FAILURE_THRESHOLD"`
		Timeout          string `yaml:"timeout" envconfig:"TIMEOUT"`
		MaxHalfOpen      int    `yaml:"max_half_open" envconfig:"MAX_HALF_OPEN"`
	} `yaml:"circuit_breaker" envconfig:"CIRCUIT_BREAKER"`

	PV struct {
		InstalledPowerKW *float64 `yaml:"installed_power_kw" envconfig:"INSTALLED_POWER_KW"`
		Efficiency       *float64 `yaml:"efficiency" envconfig:"EFFICIENCY"`
	} `yaml:"pv" envconfig:"PV"`

	Shutdown struct {
		Timeout               string `yaml:"timeout" envconfig:"TIMEOUT"`
		InFlightTimeout       string `yaml:"in_flight_timeout" envconfig:"IN_FLIGHT_TIMEOUT"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval" envconfig:"IN_FLIGHT_CHECK_INTERVAL"`
	} `yaml:"shutdown" envconfig:"SHUTDOWN"`

	Lifecycle struct {
		OverloadWindow       string `yaml:"overload_window" envconfig:"OVERLOAD_WINDOW"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct" envconfig:"OVERLOAD_THRESHOLD_PCT"`
		DegradedWindow       string `yaml:"degraded_window" envconfig:"DEGRADED_WINDOW"`
		DegradedErrorPct     int    `yaml:"degraded_error_pct" envconfig:"DEGRADED_ERROR_PCT"`
		DegradedRetryInitial string `yaml:"degraded_retry_initial" envconfig:"DEGRADED_RETRY_INITIAL"`
		DegradedRetryMax     string `yaml:"degraded_retry_max" envconfig:"DEGRADED_RETRY_MAX"`
	} `yaml:"lifecycle" envconfig:"LIFECYCLE"`
}

// Load reads .env (optional), then config/{ENV_NAME}.yaml (default dev), then applies
// SOLAR_* environment overrides. Call from project root.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &fc); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	cfg := fromFile(fc)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fromFile applies defaults to every unset or unparsable field.
func fromFile(fc fileConfig) *Config {
	cfg := &Config{}

	cfg.ServerPort = strings.TrimSpace(fc.Server.Port)
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIURL = strings.TrimSpace(fc.WeatherAPI.URL)
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.open-meteo.com/v1/forecast"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 2*time.Second)
	cfg.WeatherAPITimezone = strings.TrimSpace(fc.WeatherAPI.Timezone)
	if cfg.WeatherAPITimezone == "" {
		cfg.WeatherAPITimezone = "GMT"
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)
	cfg.CoalesceTimeout = parseDurationOrZero(fc.Request.CoalesceTimeout, 5*time.Second)

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.CircuitBreakerEnabled = true
	if fc.CircuitBreaker.Enabled != nil {
		cfg.CircuitBreakerEnabled = *fc.CircuitBreaker.Enabled
	}
	cfg.CircuitBreakerFailureThreshold = fc.CircuitBreaker.FailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerTimeout = parseDuration(fc.CircuitBreaker.Timeout, 30*time.Second)
	cfg.CircuitBreakerMaxHalfOpen = fc.CircuitBreaker.MaxHalfOpen
	if cfg.CircuitBreakerMaxHalfOpen <= 0 {
		cfg.CircuitBreakerMaxHalfOpen = 1
	}

	cfg.PVInstalledPowerKW = 2.5
	if fc.PV.InstalledPowerKW != nil {
		cfg.PVInstalledPowerKW = *fc.PV.InstalledPowerKW
	}
	cfg.PVEfficiency = 0.2
	if fc.PV.Efficiency != nil {
		cfg.PVEfficiency = *fc.PV.Efficiency
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Lifecycle.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}
	cfg.DegradedRetryInitial = parseDuration(fc.Lifecycle.DegradedRetryInitial, time.Minute)
	cfg.DegradedRetryMax = parseDuration(fc.Lifecycle.DegradedRetryMax, 20*time.Minute)
	return cfg
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero or negative durations are returned as-is.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// RequestTimeout is raised above WeatherAPITimeout when needed.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		cfg.RequestTimeout = cfg.WeatherAPITimeout + time.Second
	}
	if cfg.CoalesceTimeout < 0 {
		return fmt.Errorf("request.coalesce_timeout must not be negative")
	}
	if !(cfg.PVInstalledPowerKW > 0) {
		return fmt.Errorf("pv.installed_power_kw must be positive, got %v", cfg.PVInstalledPowerKW)
	}
	if !(cfg.PVEfficiency > 0 && cfg.PVEfficiency <= 1) {
		return fmt.Errorf("pv.efficiency must be in (0, 1], got %v", cfg.PVEfficiency)
	}
	if cfg.DegradedRetryMax < cfg.DegradedRetryInitial {
		return fmt.Errorf("lifecycle.degraded_retry_max must be >= degraded_retry_initial")
	}
	return nil
}
