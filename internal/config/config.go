package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Префикс переменных окружения: SMC_DB_PASSWORD, SMC_JWT_SECRET, ...
const envPrefix = "SMC"

// Типы платёжного шлюза
const (
	GatewaySimulator = "simulator"
	GatewayHTTP      = "http"
)

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Auth      AuthConfig      `toml:"auth"`
	Payments  PaymentsConfig  `toml:"payments"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	Workers   WorkersConfig   `toml:"workers"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// LogsConfig настройки логирования. Пустой File - вывод в stdout.
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

// AuthConfig настройки JWT
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// PaymentsConfig настройки платежей
type PaymentsConfig struct {
	Gateway          string `toml:"gateway"` // simulator | http
	GatewayURL       string `toml:"gateway_url"`
	GatewayTimeout   int    `toml:"gateway_timeout"`   // секунды
	SettleAfter      int    `toml:"settle_after"`      // секунды, только для simulator
	CallbackToken    string `toml:"callback_token"`
	InitiationLimit  int    `toml:"initiation_limit"`  // попыток на покупателя за окно
	InitiationWindow int    `toml:"initiation_window"` // секунды
}

// RedisConfig настройки Redis (лимит попыток оплаты)
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RabbitMQConfig настройки брокера уведомлений. Выключен - уведомления пишутся в лог.
type RabbitMQConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// WorkersConfig настройки фоновых воркеров (интервалы в секундах)
type WorkersConfig struct {
	OutboxInterval    int `toml:"outbox_interval"`
	OutboxBatch       int `toml:"outbox_batch"`
	ReconcileInterval int `toml:"reconcile_interval"`
	ReconcileBatch    int `toml:"reconcile_batch"`
	StaleAfter        int `toml:"stale_after"`
}

// RateLimitConfig ограничение HTTP запросов на клиента
type RateLimitConfig struct {
	RPS   float64 `toml:"rps"`
	Burst int     `toml:"burst"`
	// IdleTTL секунды, после которых неактивный клиент забывается
	IdleTTL int `toml:"idle_ttl"`
	// TrustedProxies адреса или CIDR прокси, чей X-Forwarded-For учитывается
	TrustedProxies []string `toml:"trusted_proxies"`
}

// envOverrides значения из окружения, перекрывающие файл
type envOverrides struct {
	HTTPPort      int    `envconfig:"HTTP_PORT"`
	DBHost        string `envconfig:"DB_HOST"`
	DBPort        int    `envconfig:"DB_PORT"`
	DBUser        string `envconfig:"DB_USER"`
	DBPassword    string `envconfig:"DB_PASSWORD"`
	DBName        string `envconfig:"DB_NAME"`
	JWTSecret     string `envconfig:"JWT_SECRET"`
	CallbackToken string `envconfig:"CALLBACK_TOKEN"`
	GatewayURL    string `envconfig:"GATEWAY_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RabbitMQURL   string `envconfig:"RABBITMQ_URL"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
}

// Load читает .env (если есть), TOML файл и переменные окружения SMC_*
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", configPath, err)
	}

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	setInt(&c.Server.HTTPPort, env.HTTPPort)
	setString(&c.Database.Host, env.DBHost)
	setInt(&c.Database.Port, env.DBPort)
	setString(&c.Database.User, env.DBUser)
	setString(&c.Database.Password, env.DBPassword)
	setString(&c.Database.DBName, env.DBName)
	setString(&c.Auth.JWTSecret, env.JWTSecret)
	setString(&c.Payments.CallbackToken, env.CallbackToken)
	setString(&c.Payments.GatewayURL, env.GatewayURL)
	setString(&c.Redis.Addr, env.RedisAddr)
	setString(&c.Redis.Password, env.RedisPassword)
	setString(&c.RabbitMQ.URL, env.RabbitMQURL)
	setString(&c.Logs.Level, env.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "marketplace_service"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Payments.Gateway == "" {
		c.Payments.Gateway = GatewaySimulator
	}
	if c.Payments.GatewayTimeout == 0 {
		c.Payments.GatewayTimeout = 10
	}
	if c.Payments.SettleAfter == 0 {
		c.Payments.SettleAfter = 30
	}
	if c.Payments.InitiationLimit == 0 {
		c.Payments.InitiationLimit = 5
	}
	if c.Payments.InitiationWindow == 0 {
		c.Payments.InitiationWindow = 600
	}

	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "marketplace.notifications"
	}

	if c.Workers.OutboxInterval == 0 {
		c.Workers.OutboxInterval = 2
	}
	if c.Workers.OutboxBatch == 0 {
		c.Workers.OutboxBatch = 50
	}
	if c.Workers.ReconcileInterval == 0 {
		c.Workers.ReconcileInterval = 60
	}
	if c.Workers.ReconcileBatch == 0 {
		c.Workers.ReconcileBatch = 50
	}
	if c.Workers.StaleAfter == 0 {
		c.Workers.StaleAfter = 120
	}

	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}
	if c.RateLimit.IdleTTL == 0 {
		c.RateLimit.IdleTTL = 600
	}
}

// Validate проверяет обязательные значения
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range", c.Server.HTTPPort)
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return errors.New("database host, user and dbname are required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (or SMC_JWT_SECRET)")
	}

	switch c.Payments.Gateway {
	case GatewaySimulator:
	case GatewayHTTP:
		if c.Payments.GatewayURL == "" {
			return errors.New("payments.gateway_url is required for http gateway")
		}
	default:
		return fmt.Errorf("unknown payments.gateway %q", c.Payments.Gateway)
	}
	if c.Payments.InitiationLimit < 0 || c.Payments.InitiationWindow < 0 {
		return errors.New("payments initiation limit and window must not be negative")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is required when rabbitmq is enabled")
	}

	return nil
}

// Seconds переводит значение конфигурации в time.Duration
func Seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}
