package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/sportsreelstechnical/version-1-sub001/internal/api/handlers"
	"github.com/sportsreelstechnical/version-1-sub001/internal/api/middleware"
	"github.com/sportsreelstechnical/version-1-sub001/internal/api/openapi"
	"github.com/sportsreelstechnical/version-1-sub001/internal/config"
	"github.com/sportsreelstechnical/version-1-sub001/internal/database"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/credential"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/idempotency"
	"github.com/sportsreelstechnical/version-1-sub001/internal/mailer"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
	"github.com/sportsreelstechnical/version-1-sub001/internal/server"
	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("загрузка конфигурации: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	// 1. Логирование
	logger := config.SetupLogger(cfg)
	logger.Info("Club Admin запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("password_policy", cfg.PasswordPolicy),
		slog.String("missing_staff_row_policy", cfg.MissingStaffRowPolicy),
	)

	if os.Getenv("CA_DEPHEALTH_GROUP") == "" {
		logger.Warn("CA_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}
	if cfg.PasswordPolicy == config.PasswordPolicyDerived {
		logger.Warn("Политика паролей derived восстановима по email и не защищает учётные записи")
	}

	// 2. Миграции БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return fmt.Errorf("миграции БД: %w", err)
	}

	// 3. PostgreSQL (pgxpool)
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("подключение к PostgreSQL: %w", err)
	}
	defer pool.Close()

	// 3.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 4. Repositories
	clubRepo := repository.NewClubRepository(pool)
	playerRepo := repository.NewPlayerRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	permRepo := repository.NewStaffPermissionRepository(pool)
	rpc := repository.NewAccountRPC(pool)

	// 5. Генератор учётных данных
	policy, err := credential.NewPolicy(cfg.PasswordPolicy, credential.NewCryptoRandom(), cfg.StrongPasswordLength, rpc)
	if err != nil {
		return fmt.Errorf("политика паролей: %w", err)
	}
	generator := service.NewCredentialGenerator(
		service.NewAccountBackend(rpc, playerRepo),
		policy,
		credential.NewBcryptHasher(cfg.BcryptCost),
		logger,
	)

	// 6. Services
	missingRow, err := permission.ParseMissingRowPolicy(cfg.MissingStaffRowPolicy)
	if err != nil {
		return err
	}
	scope := service.NewClubScope(clubRepo)
	playerSvc := service.NewPlayerService(playerRepo, scope, generator, logger)
	staffSvc := service.NewStaffService(staffRepo, permRepo, scope, generator, logger)
	permCache := service.NewPermissionCache(permRepo, missingRow, cfg.PermissionCacheSize, cfg.PermissionCacheTTL, logger)

	// 7. Отправка писем (опционально)
	var sender mailer.Dispatcher
	if cfg.EmailEnabled() {
		sg, err := mailer.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFromAddress, cfg.EmailFromName, logger)
		if err != nil {
			return fmt.Errorf("создание SendGrid sender: %w", err)
		}
		sender = sg
		logger.Info("Отправка писем через SendGrid включена", slog.String("from", cfg.EmailFromAddress))
	} else {
		logger.Warn("CA_SENDGRID_API_KEY не задан, отправка писем отключена")
	}

	// 8. Хранилище ключей идемпотентности: Redis, иначе in-memory
	var store idempotency.Store
	if cfg.RedisAddr != "" {
		redisStore, err := idempotency.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.IdempotencyTTL)
		if err != nil {
			return fmt.Errorf("подключение к Redis: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("Ключи идемпотентности хранятся в Redis", slog.String("addr", cfg.RedisAddr))
	} else {
		store = idempotency.NewMemoryStore(10000, cfg.IdempotencyTTL)
		logger.Warn("CA_REDIS_ADDR не задан, ключи идемпотентности хранятся в памяти процесса")
	}

	// 9. Readiness checkers (PostgreSQL + JWKS)
	jwksChecker, err := middleware.NewJWKSReadinessChecker(cfg.JWTJWKSURL, cfg.CACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		return fmt.Errorf("создание JWKS readiness checker: %w", err)
	}
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), jwksChecker)

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(healthHandler, playerSvc, staffSvc, permCache, sender, logger)

	// 11. JWT middleware
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.CACertPath,
		cfg.JWTIssuer,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		return fmt.Errorf("создание JWT middleware: %w", err)
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 12. OpenAPI-валидация запросов
	doc, err := openapi.Load(ctx)
	if err != nil {
		return err
	}
	validator, err := middleware.OpenAPIValidator(doc)
	if err != nil {
		return err
	}

	// 13. topologymetrics — мониторинг зависимостей (PostgreSQL + JWKS)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthParams{
		ServiceID:     "club-admin",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PgConnURL:     cfg.DatabaseURL(),
		JWKSURL:       cfg.JWTJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		dephealthSvc = nil
	}
	if dephealthSvc != nil {
		defer dephealthSvc.Stop()
	}

	// 14. HTTP-сервер с graceful shutdown
	srv := server.New(cfg, logger, server.Deps{
		Handler:     apiHandler,
		JWTAuth:     jwtAuth,
		Permissions: permCache,
		Idempotency: store,
		Validator:   validator,
	})
	if err := srv.Run(); err != nil {
		return err
	}

	logger.Info("Club Admin остановлен")
	return nil
}
