// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- HTTP ---
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// Таймауты HTTP-сервера (чтение/запись)
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"raffle"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"raffle_service"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Транзакции ---
	// Сколько ждём блокировку строки внутри транзакции (SET LOCAL lock_timeout).
	TxLockTimeout time.Duration `envconfig:"TX_LOCK_TIMEOUT" default:"20s"`
	// Общий бюджет одной транзакции покупки/розыгрыша (context deadline).
	TxTimeout time.Duration `envconfig:"TX_TIMEOUT" default:"30s"`

	// --- Admin ---
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`
	AdminSessionTTL   time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"24h"`

	// --- Raffle ---
	// Верхняя граница числа победителей в одном розыгрыше.
	DrawMaxWinners int `envconfig:"DRAW_MAX_WINNERS" default:"100"`

	// --- Economy ---
	EconomyStartingBalance int64  `envconfig:"ECONOMY_STARTING_BALANCE" default:"0"`
	EconomyCurrencyName    string `envconfig:"ECONOMY_CURRENCY_NAME" default:"Sweet Coins"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"30"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Telegram-анонсы (опционально) ---
	TelegramBotToken       string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
	TelegramAnnounceChatID int64  `envconfig:"TELEGRAM_ANNOUNCE_CHAT_ID" default:"0"`

	// --- Feature Flags ---
	FeatureOverlayEnabled  bool `envconfig:"FEATURE_OVERLAY_ENABLED" default:"true"`
	FeatureTelegramEnabled bool `envconfig:"FEATURE_TELEGRAM_ENABLED" default:"false"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.TxLockTimeout <= 0 || c.TxTimeout <= 0 {
		return fmt.Errorf("TX_LOCK_TIMEOUT и TX_TIMEOUT должны быть > 0")
	}
	if c.TxLockTimeout > c.TxTimeout {
		return fmt.Errorf("TX_LOCK_TIMEOUT не может превышать TX_TIMEOUT")
	}
	if c.DrawMaxWinners <= 0 {
		return fmt.Errorf("DRAW_MAX_WINNERS должен быть > 0")
	}
	if c.FeatureTelegramEnabled && (c.TelegramBotToken == "" || c.TelegramAnnounceChatID == 0) {
		return fmt.Errorf("для FEATURE_TELEGRAM_ENABLED нужны TELEGRAM_BOT_TOKEN и TELEGRAM_ANNOUNCE_CHAT_ID")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
