// Пакет config — загрузка и валидация конфигурации Club Admin
// из переменных окружения (префикс CA_).
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// envPrefix — общий префикс переменных окружения.
const envPrefix = "CA_"

// Политики генерации паролей.
const (
	PasswordPolicyDerived = "derived"
	PasswordPolicyStrong  = "strong"
	PasswordPolicyRemote  = "remote"
)

// Config содержит все параметры конфигурации Club Admin.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int `env:"PORT" envDefault:"8000"`
	// Уровень логирования (debug, info, warn, error)
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level
	// Формат логов (json, text)
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// --- PostgreSQL ---

	DBHost     string `env:"DB_HOST,required,notEmpty"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME,required,notEmpty"`
	DBUser     string `env:"DB_USER,required,notEmpty"`
	DBPassword string `env:"DB_PASSWORD,required,notEmpty"`
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string `env:"DB_SSL_MODE" envDefault:"disable"`
	// Максимум соединений пула
	DBMaxConns int `env:"DB_MAX_CONNS" envDefault:"10"`
	// Сколько ждать PostgreSQL при старте (БД может подниматься позже сервиса)
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`

	// --- JWT (сессии выдаёт провайдер аутентификации) ---

	// URL JWKS endpoint провайдера аутентификации
	JWTJWKSURL string `env:"JWT_JWKS_URL,required,notEmpty"`
	// Ожидаемый issuer (пусто — не проверяется)
	JWTIssuer string `env:"JWT_ISSUER"`
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration `env:"JWT_LEEWAY" envDefault:"5s"`
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration `env:"JWKS_CLIENT_TIMEOUT" envDefault:"10s"`
	// Интервал фонового обновления JWKS
	JWKSRefreshInterval time.Duration `env:"JWKS_REFRESH_INTERVAL" envDefault:"15m"`
	// Путь к CA-сертификату для TLS-соединений (опционально)
	CACertPath string `env:"TLS_CA_CERT_PATH"`

	// --- Учётные данные ---

	// Политика генерации паролей: derived, strong, remote
	PasswordPolicy string `env:"PASSWORD_POLICY" envDefault:"derived"`
	// Длина пароля для политики strong
	StrongPasswordLength int `env:"STRONG_PASSWORD_LENGTH" envDefault:"16"`
	// Стоимость bcrypt
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// --- Права доступа ---

	// Политика для staff без строки прав: grantAll, denyAll
	MissingStaffRowPolicy string `env:"MISSING_STAFF_ROW_POLICY" envDefault:"grantAll"`
	// Максимальное количество сессий в кэше прав
	PermissionCacheSize int `env:"PERMISSION_CACHE_SIZE" envDefault:"1024"`
	// Время жизни записи в кэше прав
	PermissionCacheTTL time.Duration `env:"PERMISSION_CACHE_TTL" envDefault:"5m"`

	// --- Email ---

	// URL endpoint'а отправки писем (используется CLI-консолью)
	EmailEndpointURL string `env:"EMAIL_ENDPOINT_URL" envDefault:"http://localhost:8000/api/v1/credentials/email"`
	// Таймаут запроса к endpoint'у отправки
	EmailTimeout time.Duration `env:"EMAIL_TIMEOUT" envDefault:"15s"`
	// API-ключ SendGrid (пусто — отправка писем отключена)
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	// Адрес и имя отправителя
	EmailFromAddress string `env:"EMAIL_FROM_ADDRESS" envDefault:"no-reply@sportsreels.app"`
	EmailFromName    string `env:"EMAIL_FROM_NAME" envDefault:"Sports Reels"`

	// --- Защита от повторной отправки ---

	// Адрес Redis (пусто — in-memory хранилище ключей)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	// Время жизни ключа идемпотентности
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"10m"`

	// --- topologymetrics ---

	DephealthGroup         string        `env:"DEPHEALTH_GROUP" envDefault:"sportsreels"`
	DephealthCheckInterval time.Duration `env:"DEPHEALTH_CHECK_INTERVAL" envDefault:"15s"`

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load загружает конфигурацию из переменных окружения, валидирует
// поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("разбор переменных окружения: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate проверяет диапазоны и допустимые значения.
func (c *Config) validate() error {
	var err error

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("CA_PORT: значение %d вне допустимого диапазона 1-65535", c.Port)
	}

	c.LogLevel, err = parseLogLevel(c.LogLevelRaw)
	if err != nil {
		return fmt.Errorf("CA_LOG_LEVEL: %w", err)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("CA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", c.LogFormat)
	}

	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[c.DBSSLMode] {
		return fmt.Errorf("CA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", c.DBSSLMode)
	}

	if c.DBMaxConns < 1 || c.DBMaxConns > 100 {
		return fmt.Errorf("CA_DB_MAX_CONNS: значение %d вне допустимого диапазона 1-100", c.DBMaxConns)
	}

	switch c.PasswordPolicy {
	case PasswordPolicyDerived, PasswordPolicyStrong, PasswordPolicyRemote:
	default:
		return fmt.Errorf("CA_PASSWORD_POLICY: недопустимое значение %q, допустимые: derived, strong, remote", c.PasswordPolicy)
	}

	if c.StrongPasswordLength < 12 || c.StrongPasswordLength > 128 {
		return fmt.Errorf("CA_STRONG_PASSWORD_LENGTH: значение %d вне допустимого диапазона 12-128", c.StrongPasswordLength)
	}

	// Границы bcrypt: MinCost=4, MaxCost=31
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("CA_BCRYPT_COST: значение %d вне допустимого диапазона 4-31", c.BcryptCost)
	}

	if c.MissingStaffRowPolicy != "grantAll" && c.MissingStaffRowPolicy != "denyAll" {
		return fmt.Errorf("CA_MISSING_STAFF_ROW_POLICY: недопустимое значение %q, допустимые: grantAll, denyAll", c.MissingStaffRowPolicy)
	}

	if c.PermissionCacheSize < 1 {
		return fmt.Errorf("CA_PERMISSION_CACHE_SIZE: значение должно быть положительным, получено %d", c.PermissionCacheSize)
	}

	c.JWTJWKSURL = strings.TrimSpace(c.JWTJWKSURL)
	c.EmailEndpointURL = strings.TrimRight(c.EmailEndpointURL, "/")

	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL (для миграций и метрик).
// Логин и пароль экранируются.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// EmailEnabled сообщает, настроена ли отправка писем через SendGrid.
func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
