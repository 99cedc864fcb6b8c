package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/route-winds-aggregation/internal/weather"
)

// AppConfig is built once at startup and never mutated afterwards.
type AppConfig struct {
	Port string

	// Open-Meteo upstream.
	OpenMeteoBaseURL string
	OpenMeteoAPIKey  string
	Model            string
	ForecastHours    int
	Timezone         string
	UpstreamTimeout  time.Duration
	UpstreamRPS      float64 // outbound batches per second (0 = unlimited)
	UpstreamBurst    int

	// AVWX METAR proxy.
	AVWXBaseURL string
	AVWXToken   string
	AVWXTimeout time.Duration

	// Levels is the altitude -> pressure level table, either the built-in
	// default or the one read from LevelTableFile.
	LevelTableFile string
	Levels         weather.LevelTable

	// Readiness probe; ProbeInterval 0 disables it.
	ProbeInterval time.Duration
	ProbeLat      float64
	ProbeLon      float64

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.OpenMeteoBaseURL = getenvDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com")
	cfg.OpenMeteoAPIKey = os.Getenv("OPEN_METEO_API_KEY")
	cfg.Model = getenvDefault("GFS_MODEL", "gfs_seamless")
	var err error
	if cfg.ForecastHours, err = getenvInt("FORECAST_HOURS", 1); err != nil {
		return nil, err
	}
	if cfg.ForecastHours <= 0 {
		return nil, fmt.Errorf("invalid FORECAST_HOURS: must be positive")
	}
	cfg.Timezone = getenvDefault("FORECAST_TIMEZONE", "UTC")

	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.UpstreamRPS, err = getenvFloat("UPSTREAM_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.UpstreamBurst, err = getenvInt("UPSTREAM_BURST", 5); err != nil {
		return nil, err
	}
	// A zero burst makes every limiter Wait fail.
	if cfg.UpstreamRPS > 0 && cfg.UpstreamBurst < 1 {
		return nil, fmt.Errorf("invalid UPSTREAM_BURST: must be positive")
	}

	cfg.AVWXBaseURL = getenvDefault("AVWX_BASE_URL", "https://avwx.rest")
	cfg.AVWXToken = os.Getenv("AVWX_TOKEN")
	if cfg.AVWXTimeout, err = getenvDuration("AVWX_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.LevelTableFile = os.Getenv("LEVEL_TABLE_FILE")
	cfg.Levels = weather.DefaultLevelTable()
	if cfg.LevelTableFile != "" {
		table, err := LoadLevelTable(cfg.LevelTableFile)
		if err != nil {
			return nil, err
		}
		cfg.Levels = table
	}

	interval, err := time.ParseDuration(getenvDefault("PROBE_INTERVAL", "5m"))
	if err != nil || interval < 0 {
		return nil, fmt.Errorf("invalid PROBE_INTERVAL: %q", os.Getenv("PROBE_INTERVAL"))
	}
	cfg.ProbeInterval = interval
	if cfg.ProbeLat, err = getenvFloat("PROBE_LAT", 35.0); err != nil {
		return nil, err
	}
	if cfg.ProbeLon, err = getenvFloat("PROBE_LON", 139.0); err != nil {
		return nil, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// QueryOptions returns the fixed upstream request options.
func (c *AppConfig) QueryOptions() weather.QueryOptions {
	return weather.QueryOptions{
		SpeedUnit:     "kn",
		Model:         c.Model,
		ForecastHours: c.ForecastHours,
		Timezone:      c.Timezone,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

// getenvDuration parses a strictly positive duration.
func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
