package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported metric store drivers
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Env         string   `mapstructure:"env"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"` // requests per second per client IP
	RateBurst   int      `mapstructure:"rate_burst"`
}

// SupabaseConfig holds Supabase-specific configuration
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// StoreConfig selects where daily health metrics are read from
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig configures the analysis bundle cache. An empty URL disables it.
type RedisConfig struct {
	URL             string `mapstructure:"url"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl"`
}

// CacheTTL returns the bundle cache lifetime
func (r RedisConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// AnalysisConfig holds the analytics pipeline settings
type AnalysisConfig struct {
	MinDataPoints   int             `mapstructure:"min_data_points"`
	DefaultDays     int             `mapstructure:"default_days"`
	MinDays         int             `mapstructure:"min_days"`
	MaxDays         int             `mapstructure:"max_days"`
	Contamination   float64         `mapstructure:"contamination"`
	AnomalyFeatures []string        `mapstructure:"anomaly_features"`
	Patterns        []PatternConfig `mapstructure:"patterns"`
	TimeoutSeconds  int             `mapstructure:"timeout"`
}

// Timeout bounds a single full analysis run
func (a AnalysisConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// PatternConfig is one lagged hypothesis tested on every full analysis
type PatternConfig struct {
	Predictor        string  `mapstructure:"predictor"`
	Outcome          string  `mapstructure:"outcome"`
	LagDays          int     `mapstructure:"lag_days"`
	Threshold        float64 `mapstructure:"threshold"`
	Comparison       string  `mapstructure:"comparison"`
	MinEffectPercent float64 `mapstructure:"min_effect_percent"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// A missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also bind to non-prefixed environment variables used by the original deployment
	v.BindEnv("server.port", "INSIGHTS_SERVER_PORT", "PORT")
	v.BindEnv("server.env", "INSIGHTS_SERVER_ENV", "ENVIRONMENT")
	v.BindEnv("server.cors_origins", "INSIGHTS_SERVER_CORS_ORIGINS", "CORS_ORIGINS")
	v.BindEnv("supabase.url", "INSIGHTS_SUPABASE_URL", "SUPABASE_URL")
	v.BindEnv("supabase.service_key", "INSIGHTS_SUPABASE_SERVICE_KEY", "SUPABASE_SERVICE_KEY")
	v.BindEnv("store.dsn", "INSIGHTS_STORE_DSN", "DATABASE_URL")
	v.BindEnv("redis.url", "INSIGHTS_REDIS_URL", "REDIS_URL")
	v.BindEnv("logging.level", "INSIGHTS_LOGGING_LEVEL", "LOG_LEVEL")

	// Read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// It's okay if config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.normalize()

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)

	v.SetDefault("store.driver", DriverSupabase)

	v.SetDefault("redis.cache_ttl", 3600)

	v.SetDefault("analysis.min_data_points", 30)
	v.SetDefault("analysis.default_days", 90)
	v.SetDefault("analysis.min_days", 7)
	v.SetDefault("analysis.max_days", 365)
	v.SetDefault("analysis.contamination", 0.08)
	v.SetDefault("analysis.timeout", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// normalize trims list values that arrive as a single comma separated env var
func (c *Config) normalize() {
	c.Server.CORSOrigins = splitList(c.Server.CORSOrigins)
	c.Analysis.AnomalyFeatures = splitList(c.Analysis.AnomalyFeatures)
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSupabase:
		if c.Supabase.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.Supabase.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (want %s or %s)", c.Store.Driver, DriverSupabase, DriverPostgres)
	}

	a := c.Analysis
	if a.MinDataPoints < 30 {
		return fmt.Errorf("analysis.min_data_points must be at least 30, got %d", a.MinDataPoints)
	}
	if a.MinDays < 1 || a.MaxDays < a.MinDays {
		return fmt.Errorf("analysis day range [%d, %d] is invalid", a.MinDays, a.MaxDays)
	}
	if a.DefaultDays < a.MinDays || a.DefaultDays > a.MaxDays {
		return fmt.Errorf("analysis.default_days must be between %d and %d", a.MinDays, a.MaxDays)
	}
	if a.Contamination <= 0 || a.Contamination >= 0.5 {
		return fmt.Errorf("analysis.contamination must be in (0, 0.5), got %v", a.Contamination)
	}
	for i, p := range a.Patterns {
		if p.Predictor == "" || p.Outcome == "" {
			return fmt.Errorf("analysis.patterns[%d]: predictor and outcome are required", i)
		}
		if p.LagDays < 1 {
			return fmt.Errorf("analysis.patterns[%d]: lag_days must be at least 1", i)
		}
		switch p.Comparison {
		case "", "below", "above":
		default:
			return fmt.Errorf("analysis.patterns[%d]: comparison must be below or above", i)
		}
	}

	if c.Redis.URL != "" && c.Redis.CacheTTLSeconds <= 0 {
		return fmt.Errorf("redis.cache_ttl must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
