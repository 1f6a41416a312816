package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/unistore/backend/internal/domain/source"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Catalog CatalogConfig
	Sources map[source.ID]DatabaseConfig
	Remote  RemoteConfig
	Redis   RedisConfig
	Orders  OrdersConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
}

// CatalogConfig bounds catalog reads across all sources.
type CatalogConfig struct {
	RowCap   int           // maximum rows fetched per table
	CacheTTL time.Duration // product-list cache lifetime
}

// DatabaseConfig holds connection settings for one relational source.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN builds the MySQL connection string for this source.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Configured reports whether this source has enough settings to connect.
func (c DatabaseConfig) Configured() bool {
	return c.Host != "" && c.DBName != ""
}

// RemoteConfig holds the remote storefront endpoints and credentials.
type RemoteConfig struct {
	RailwayBaseURL    string
	RailwayAuthToken  string
	RailwayUserID     string
	RailwayCartID     string
	EcomBaseURL       string
	EcomAuthToken     string
	PhoneStoreBaseURL string
	PhoneStoreUser    string
	Timeout           time.Duration // per-call HTTP deadline for all adapters
}

// RedisConfig holds the optional product-cache backend settings.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// OrdersConfig tunes the order poll loop.
type OrdersConfig struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with UNISTORE_ prefix (e.g. UNISTORE_REMOTE_ECOM_AUTH_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("UNISTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Catalog: CatalogConfig{
			RowCap:   v.GetInt("catalog.row_cap"),
			CacheTTL: v.GetDuration("catalog.cache_ttl"),
		},
		Sources: map[source.ID]DatabaseConfig{
			source.Railway:      sourceDatabase(v, "railway"),
			source.Microservice: sourceDatabase(v, "microservice"),
			source.PhoneWebsite: sourceDatabase(v, "phonewebsite"),
		},
		Remote: RemoteConfig{
			RailwayBaseURL:    v.GetString("remote.railway_base_url"),
			RailwayAuthToken:  v.GetString("remote.railway_auth_token"),
			RailwayUserID:     v.GetString("remote.railway_user_id"),
			RailwayCartID:     v.GetString("remote.railway_cart_id"),
			EcomBaseURL:       v.GetString("remote.ecom_base_url"),
			EcomAuthToken:     v.GetString("remote.ecom_auth_token"),
			PhoneStoreBaseURL: v.GetString("remote.phonestore_base_url"),
			PhoneStoreUser:    v.GetString("remote.phonestore_username"),
			Timeout:           v.GetDuration("remote.timeout"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Orders: OrdersConfig{
			PollInterval: v.GetDuration("orders.poll_interval"),
			PollTimeout:  v.GetDuration("orders.poll_timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func sourceDatabase(v *viper.Viper, name string) DatabaseConfig {
	prefix := "sources." + name + "."
	return DatabaseConfig{
		Host:         v.GetString(prefix + "host"),
		Port:         v.GetInt(prefix + "port"),
		User:         v.GetString(prefix + "user"),
		Password:     v.GetString(prefix + "password"),
		DBName:       v.GetString(prefix + "dbname"),
		MaxOpenConns: v.GetInt(prefix + "max_open_conns"),
		MaxIdleConns: v.GetInt(prefix + "max_idle_conns"),
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "unistore-gateway"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "5000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.Catalog.RowCap == 0 {
		cfg.Catalog.RowCap = 1000
	}
	if cfg.Catalog.CacheTTL == 0 {
		cfg.Catalog.CacheTTL = 60 * time.Second
	}
	for id, db := range cfg.Sources {
		if db.Port == 0 {
			db.Port = 3306
		}
		if db.MaxOpenConns == 0 {
			db.MaxOpenConns = 10
		}
		if db.MaxIdleConns == 0 {
			db.MaxIdleConns = 2
		}
		cfg.Sources[id] = db
	}
	if cfg.Remote.RailwayBaseURL == "" {
		cfg.Remote.RailwayBaseURL = "https://test-9she.onrender.com"
	}
	if cfg.Remote.RailwayUserID == "" {
		cfg.Remote.RailwayUserID = "2"
	}
	if cfg.Remote.RailwayCartID == "" {
		cfg.Remote.RailwayCartID = "1"
	}
	if cfg.Remote.EcomBaseURL == "" {
		cfg.Remote.EcomBaseURL = "https://ecommerce-integration.onrender.com"
	}
	if cfg.Remote.PhoneStoreBaseURL == "" {
		cfg.Remote.PhoneStoreBaseURL = "https://phone-store-dinh.vercel.app"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 15 * time.Second
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Orders.PollInterval == 0 {
		cfg.Orders.PollInterval = 2 * time.Second
	}
	if cfg.Orders.PollTimeout == 0 {
		cfg.Orders.PollTimeout = 120 * time.Second
	}
}

// validate checks settings that would otherwise fail confusingly at
// request time.
func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"remote.railway_base_url":    c.Remote.RailwayBaseURL,
		"remote.ecom_base_url":       c.Remote.EcomBaseURL,
		"remote.phonestore_base_url": c.Remote.PhoneStoreBaseURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: %s is not a valid URL: %q", name, raw)
		}
	}
	if c.Orders.PollInterval >= c.Orders.PollTimeout {
		return fmt.Errorf("config: orders.poll_interval (%s) must be below orders.poll_timeout (%s)",
			c.Orders.PollInterval, c.Orders.PollTimeout)
	}
	if c.Catalog.RowCap < 1 {
		return fmt.Errorf("config: catalog.row_cap must be positive")
	}
	return nil
}
