//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/solar-forecast-service/internal/aggregation"
	"github.com/kjstillabower/solar-forecast-service/internal/client"
	"github.com/kjstillabower/solar-forecast-service/internal/service"
)

const defaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// IntegrationTestConfig holds configuration for tests against the live provider.
type IntegrationTestConfig struct {
	APIURL   string
	Timezone string
}

// GetIntegrationConfig loads integration settings from the environment.
// Skips the test unless SOLAR_INTEGRATION is set, since it needs network access.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("SOLAR_INTEGRATION") == "" {
		t.Skip("SOLAR_INTEGRATION not set, skipping integration test")
	}

	apiURL := os.Getenv("SOLAR_WEATHER_API_URL")
	if apiURL == "" {
		apiURL = defaultOpenMeteoURL
	}
	return IntegrationTestConfig{
		APIURL:   apiURL,
		Timezone: os.Getenv("SOLAR_WEATHER_API_TIMEZONE"),
	}
}

// SetupIntegrationClient creates an Open-Meteo client with a short retry budget.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.OpenMeteoClient {
	t.Helper()
	c, err := client.NewOpenMeteoClient(client.Config{
		URL:            cfg.APIURL,
		Timezone:       cfg.Timezone,
		Timeout:        10 * time.Second,
		RetryAttempts:  2,
		RetryBaseDelay: 500 * time.Millisecond,
		RetryMaxDelay:  2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewOpenMeteoClient() error = %v", err)
	}
	return c
}

// SetupIntegrationService wires the live client into a WeatherService with the default PV installation.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) *service.WeatherService {
	t.Helper()
	return service.NewWeatherService(SetupIntegrationClient(t, cfg), aggregation.DefaultEnergyEstimator(), zaptest.NewLogger(t), 0)
}
