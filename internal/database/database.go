// Пакет database — пул соединений PostgreSQL, схема Club Admin
// (клубы, игроки, персонал, права и RPC-функции учётных данных)
// и проверка готовности БД для /health/ready.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sportsreelstechnical/version-1-sub001/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// applicationName видна в pg_stat_activity.
const applicationName = "club-admin"

// ErrDirtySchema — прошлая миграция упала на середине, схема требует ручного
// вмешательства (migrate force).
var ErrDirtySchema = errors.New("схема БД в состоянии dirty")

// connectRetryInterval — пауза между попытками ping при старте.
const connectRetryInterval = time.Second

// Connect открывает пул и ждёт доступности PostgreSQL не дольше
// cfg.DBConnectTimeout (0 — одна попытка).
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("разбор DSN PostgreSQL: %w", err)
	}
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("создание пула PostgreSQL: %w", err)
	}

	attempts, err := waitReady(ctx, pool, cfg.DBConnectTimeout, connectRetryInterval)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQL недоступен после %d попыток: %w", attempts, err)
	}

	logger.Info("PostgreSQL подключён",
		slog.String("host", cfg.DBHost),
		slog.String("database", cfg.DBName),
		slog.Int("max_conns", int(poolCfg.MaxConns)),
		slog.Int("attempts", attempts),
	)
	return pool, nil
}

// Pinger — то, что умеет проверять соединение (*pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// waitReady пингует p, пока не получит ответ или не истечёт timeout.
// Возвращает число попыток.
func waitReady(ctx context.Context, p Pinger, timeout, interval time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		err := p.Ping(ctx)
		if err == nil {
			return attempt, nil
		}
		if time.Now().Add(interval).After(deadline) {
			return attempt, err
		}
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Migrate доводит схему до последней встроенной версии.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return fmt.Errorf("чтение версии схемы: %w", err)
	case dirty:
		return fmt.Errorf("%w: версия %d", ErrDirtySchema, from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("применение миграций с версии %d: %w", from, err)
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("чтение версии схемы: %w", err)
	}
	if to == from {
		logger.Info("Схема БД актуальна", slog.Uint64("version", uint64(to)))
		return nil
	}
	logger.Info("Схема БД обновлена",
		slog.Uint64("from", uint64(from)),
		slog.Uint64("to", uint64(to)),
	)
	return nil
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("инициализация golang-migrate: %w", err)
	}
	return m, nil
}

// migrateURL — DatabaseURL со схемой драйвера pgx/v5 для golang-migrate.
func migrateURL(cfg *config.Config) string {
	return "pgx5" + cfg.DatabaseURL()[len("postgres"):]
}

// ReadinessChecker — проверка PostgreSQL для /health/ready.
type ReadinessChecker struct {
	db      Pinger
	timeout time.Duration
}

// NewReadinessChecker создаёт проверку готовности поверх пула.
func NewReadinessChecker(db Pinger) *ReadinessChecker {
	return &ReadinessChecker{db: db, timeout: 3 * time.Second}
}

// CheckReady пингует PostgreSQL: "ok" или "fail" с причиной.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.db.Ping(ctx); err != nil {
		return "fail", "PostgreSQL недоступен: " + err.Error()
	}
	return "ok", "подключение активно"
}
