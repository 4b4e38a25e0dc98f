package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Guard    GuardConfig    `mapstructure:"guard"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (счётчики квот и отзыв сессий).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит пути к RSA ключам и настройки сессионной куки.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	SecureCookie   bool          `mapstructure:"secure_cookie"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	PublicKey      []byte
	PrivateKey     []byte
}

// GuardConfig — политика guard-пайплайна по умолчанию.
type GuardConfig struct {
	// Разрешённые origin'ы сайта (scheme://host). Origin самого запроса
	// добавляется к списку автоматически.
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateWindow     time.Duration `mapstructure:"rate_window"`
	RateLimit      int64         `mapstructure:"rate_limit"`
}

// AuditConfig настраивает буфер и частоту сброса audit trail.
type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// WebhookConfig — настройки пробы внешнего вебхука (Circuit Breaker + ретраи).
type WebhookConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    uint          `mapstructure:"max_retries"`
	RatePerSec    float64       `mapstructure:"rate_per_sec"`
	Burst         int           `mapstructure:"burst"`
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла (его отсутствие — не ошибка, работаем на ENV)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Ключи из файла ИЛИ напрямую из ENV (Docker/K8s)
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("auth.session_cookie", "sched_session")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.secure_cookie", true)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("guard.rate_window", 15*time.Second)
	v.SetDefault("guard.rate_limit", 20)
	v.SetDefault("audit.buffer_size", 10000)
	v.SetDefault("audit.flush_interval", 500*time.Millisecond)
	v.SetDefault("webhook.timeout", 5*time.Second)
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.rate_per_sec", 1.0)
	v.SetDefault("webhook.burst", 3)
	v.SetDefault("webhook.cb_max_requests", 3)
	v.SetDefault("webhook.cb_interval", 60*time.Second)
	v.SetDefault("webhook.cb_timeout", 30*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// loadKeyResource — ключ либо прилетает напрямую в ENV (PEM), либо читается с диска
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
