// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	StoreDriverSheets   = "sheets"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Sheets    SheetsConfig    `koanf:"sheets"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Payment   PaymentConfig   `koanf:"payment"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	Events    EventsConfig    `koanf:"events"`
	Admin     AdminConfig     `koanf:"admin"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver string `koanf:"driver"`
}

type SheetsConfig struct {
	SpreadsheetID       string        `koanf:"spreadsheet_id"`
	ServiceAccountEmail string        `koanf:"service_account_email"`
	PrivateKey          string        `koanf:"private_key"`
	CredentialsFile     string        `koanf:"credentials_file"`
	ReconnectInterval   time.Duration `koanf:"reconnect_interval"`
	RequestTimeout      time.Duration `koanf:"request_timeout"`
}

// Enabled is false when no spreadsheet credentials were supplied at all,
// in which case the store stays in degraded mode for the process lifetime.
func (s SheetsConfig) Enabled() bool {
	if s.SpreadsheetID == "" {
		return false
	}
	return s.CredentialsFile != "" ||
		(s.ServiceAccountEmail != "" && s.PrivateKey != "")
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	Secret            string        `koanf:"secret"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

type PaymentConfig struct {
	ServerKey     string        `koanf:"server_key"`
	ClientKey     string        `koanf:"client_key"`
	Production    bool          `koanf:"production"`
	MockMode      bool          `koanf:"mock_mode"`
	FrontendURL   string        `koanf:"frontend_url"`
	PageExpiry    time.Duration `koanf:"page_expiry"`
	CookieName    string        `koanf:"cookie_name"`
	CookieTTL     time.Duration `koanf:"cookie_ttl"`
	DedupeTTL     time.Duration `koanf:"dedupe_ttl"`
	PendingTTL    time.Duration `koanf:"pending_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

type TelegramConfig struct {
	BotToken    string `koanf:"bot_token"`
	AdminChatID string `koanf:"admin_chat_id"`
	WebhookURL  string `koanf:"webhook_url"`
}

type EventsConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type AdminConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "EA Marketplace",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             5000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"store.driver": StoreDriverSheets,

		"sheets.reconnect_interval": "30s",
		"sheets.request_timeout":    "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 2,

		"jwt.access_token_expire": "168h",
		"jwt.issuer":              "ea-marketplace",
		"jwt.audience":            "ea-marketplace-api",

		"payment.mock_mode":      false,
		"payment.production":     false,
		"payment.frontend_url":   "http://localhost:3000",
		"payment.page_expiry":    "60m",
		"payment.cookie_name":    "midtrans_transaction",
		"payment.cookie_ttl":     "1h",
		"payment.dedupe_ttl":     "24h",
		"payment.pending_ttl":    "24h",
		"payment.sweep_interval": "15m",

		"events.enabled": false,
		"events.topic":   "ea-marketplace.orders",

		"rate_limit.requests":      100,
		"rate_limit.window":        "15m",
		"rate_limit.burst":         100,
		"rate_limit.auth_requests": 50,
		"rate_limit.auth_burst":    50,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "ea-marketplace",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"ENVIRONMENT":                  "app.environment",
	"NODE_ENV":                     "app.environment",
	"HOST":                         "server.host",
	"PORT":                         "server.port",
	"STORE_DRIVER":                 "store.driver",
	"SPREADSHEET_ID":               "sheets.spreadsheet_id",
	"GOOGLE_SERVICE_ACCOUNT_EMAIL": "sheets.service_account_email",
	"GOOGLE_PRIVATE_KEY":           "sheets.private_key",
	"GOOGLE_CREDENTIALS_FILE":      "sheets.credentials_file",
	"DATABASE_URL":                 "database.url",
	"REDIS_URL":                    "redis.url",
	"JWT_SECRET":                   "jwt.secret",
	"JWT_EXPIRES_IN":               "jwt.access_token_expire",
	"JWT_ISSUER":                   "jwt.issuer",
	"JWT_AUDIENCE":                 "jwt.audience",
	"MIDTRANS_SERVER_KEY":          "payment.server_key",
	"MIDTRANS_CLIENT_KEY":          "payment.client_key",
	"MIDTRANS_IS_PRODUCTION":       "payment.production",
	"MIDTRANS_MOCK_MODE":           "payment.mock_mode",
	"FRONTEND_URL":                 "payment.frontend_url",
	"PENDING_ORDER_TTL":            "payment.pending_ttl",
	"TELEGRAM_BOT_TOKEN":           "telegram.bot_token",
	"TELEGRAM_ADMIN_CHAT_ID":       "telegram.admin_chat_id",
	"TELEGRAM_WEBHOOK_URL":         "telegram.webhook_url",
	"EVENTS_ENABLED":               "events.enabled",
	"KAFKA_BROKERS":                "events.brokers",
	"KAFKA_TOPIC":                  "events.topic",
	"ADMIN_EMAIL":                  "admin.email",
	"ADMIN_PASSWORD":               "admin.password",
	"LOG_LEVEL":                    "log.level",
	"LOG_FORMAT":                   "log.format",
	"RATE_LIMIT_REQUESTS":          "rate_limit.requests",
	"RATE_LIMIT_WINDOW":            "rate_limit.window",
	"RATE_LIMIT_BURST":             "rate_limit.burst",
	"OTEL_ENDPOINT":                "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":  "otel.endpoint",
	"OTEL_SERVICE_NAME":            "otel.service_name",
	"OTEL_ENABLED":                 "otel.enabled",
	"OTEL_INSECURE":                "otel.insecure",
	"OTEL_SAMPLE_RATE":             "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	switch c.Store.Driver {
	case StoreDriverSheets:
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.App.Environment == "production" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}

	if c.JWT.AccessTokenExpire <= 0 {
		return fmt.Errorf("jwt.access_token_expire must be positive")
	}

	if !c.Payment.MockMode && c.Payment.ServerKey == "" {
		return fmt.Errorf("MIDTRANS_SERVER_KEY is required unless MIDTRANS_MOCK_MODE is set")
	}

	if c.Payment.CookieTTL <= 0 {
		return fmt.Errorf("payment.cookie_ttl must be positive")
	}

	// The gateway can still settle an order until its payment page expires.
	if c.Payment.PendingTTL > 0 && c.Payment.PendingTTL <= c.Payment.PageExpiry {
		return fmt.Errorf(
			"PENDING_ORDER_TTL (%s) must exceed payment.page_expiry (%s)",
			c.Payment.PendingTTL, c.Payment.PageExpiry,
		)
	}

	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when events are enabled")
	}

	if c.CORS.AllowCredentials && slices.Contains(c.CORS.AllowedOrigins, "*") {
		return fmt.Errorf(
			"CORS wildcard '*' cannot be used with AllowCredentials",
		)
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
