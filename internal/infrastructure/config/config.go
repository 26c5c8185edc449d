package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	VIP       VIPConfig       `mapstructure:"vip"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
}

// VIPConfig holds the candidate engine settings. Revenue thresholds are in
// the ledger's base currency unit.
type VIPConfig struct {
	FetchTimeout          time.Duration `mapstructure:"fetch_timeout"`
	FetchBatchSize        int           `mapstructure:"fetch_batch_size"`
	ReferralRevenueHigh   int64         `mapstructure:"referral_revenue_high"`
	ReferralRevenueMedium int64         `mapstructure:"referral_revenue_medium"`
	IdempotencyTTL        time.Duration `mapstructure:"idempotency_ttl"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"` // e.g. "localhost:4317"
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`     // 0.0-1.0
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"` // non-TLS collector, development only
}

// defaults registers every known key with its default value. Registering a
// key (even with a zero value, like database.password) is what makes the
// matching CLINIC_* environment variable visible to Unmarshal.
func defaults(v *viper.Viper) {
	for key, value := range map[string]any{
		"app.name": "clinic-backend",
		"app.env":  "development",
		"app.port": "8080",

		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "",
		"database.dbname":             "clinic",
		"database.sslmode":            "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  60,
		"database.conn_max_idle_time": 30,

		"redis.enabled":  false,
		"redis.host":     "localhost",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		"log.level":  "info",
		"log.format": "console",
		"log.output": "stdout",

		"http.read_timeout":     15 * time.Second,
		"http.write_timeout":    15 * time.Second,
		"http.idle_timeout":     60 * time.Second,
		"http.max_header_bytes": 1 << 20,  // 1MB
		"http.max_body_size":    10 << 20, // 10MB
		// No default CORS origins: cross-origin access stays off until
		// configured explicitly.
		"http.cors_allow_origins": []string{},
		"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		"http.cors_allow_headers": []string{"Content-Type", "X-Request-ID", "X-Operator", "Idempotency-Key"},
		"http.trusted_proxies":    []string{},

		"vip.fetch_timeout":           10 * time.Second,
		"vip.fetch_batch_size":        200,
		"vip.referral_revenue_high":   int64(5_000_000),
		"vip.referral_revenue_medium": int64(1_000_000),
		"vip.idempotency_ttl":         24 * time.Hour,

		"telemetry.enabled":            false,
		"telemetry.collector_endpoint": "localhost:4317",
		"telemetry.sampling_ratio":     1.0,
		"telemetry.service_name":       "clinic-backend",
		"telemetry.insecure":           false,
	} {
		v.SetDefault(key, value)
	}
}

// Load reads configuration in ascending priority: built-in defaults, then
// config.toml, then CLINIC_* environment variables (CLINIC_DATABASE_PASSWORD
// overrides database.password).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	defaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Running on defaults and environment alone is supported
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.VIP.ReferralRevenueMedium > c.VIP.ReferralRevenueHigh {
		return fmt.Errorf("vip.referral_revenue_medium (%d) cannot exceed vip.referral_revenue_high (%d)",
			c.VIP.ReferralRevenueMedium, c.VIP.ReferralRevenueHigh)
	}

	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

// validateProduction rejects settings that are acceptable on a developer
// machine but unsafe in a real deployment.
func (c *Config) validateProduction() error {
	if c.Database.Password == "" {
		return fmt.Errorf("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return fmt.Errorf("database.sslmode cannot be 'disable' in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
