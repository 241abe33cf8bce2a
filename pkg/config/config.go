package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	Port        string
	Environment string
	LogLevel    string

	Database DatabaseConfig
	Weather  WeatherConfig

	RateLimitEnabled bool
	RateLimit        RateLimitConfig
	RedisURL         string

	EnforceHTTPS bool

	LokiURL      string
	OTLPEndpoint string
	MetricsPort  string
}

type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

type WeatherConfig struct {
	APIKey        string
	GeoURL        string
	APIURL        string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*AppConfig, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &AppConfig{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			URL:    v.GetString("DATABASE_URL"),
		},
		Weather: WeatherConfig{
			APIKey:        v.GetString("API_KEY"),
			GeoURL:        strings.TrimRight(v.GetString("WEATHER_GEO_URL"), "/"),
			APIURL:        strings.TrimRight(v.GetString("WEATHER_API_URL"), "/"),
			Timeout:       v.GetDuration("WEATHER_TIMEOUT"),
			RatePerSecond: v.GetFloat64("WEATHER_RATE_PER_SECOND"),
			Burst:         v.GetInt("WEATHER_BURST"),
		},
		RateLimitEnabled: v.GetBool("RATE_LIMIT_ENABLED"),
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		RedisURL:     v.GetString("REDIS_URL"),
		EnforceHTTPS: v.GetBool("ENFORCE_HTTPS"),
		LokiURL:      v.GetString("LOKI_URL"),
		OTLPEndpoint: v.GetString("OTLP_ENDPOINT"),
		MetricsPort:  v.GetString("METRICS_PORT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_PATH", "todos.sqlite")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("API_KEY", "")
	v.SetDefault("WEATHER_GEO_URL", "http://api.openweathermap.org")
	v.SetDefault("WEATHER_API_URL", "https://api.openweathermap.org")
	v.SetDefault("WEATHER_TIMEOUT", "5s")
	v.SetDefault("WEATHER_RATE_PER_SECOND", 1)
	v.SetDefault("WEATHER_BURST", 60)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("ENFORCE_HTTPS", false)
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("METRICS_PORT", "9091")
}

func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DATABASE_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("WEATHER_TIMEOUT must be positive, got %s", c.Weather.Timeout)
	}

	if c.RateLimitEnabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit %d per %s", c.RateLimit.Requests, c.RateLimit.Window)
	}

	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
