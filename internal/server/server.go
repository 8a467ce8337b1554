// Пакет server — HTTP-сервер Club Admin с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sportsreelstechnical/version-1-sub001/internal/api/handlers"
	"github.com/sportsreelstechnical/version-1-sub001/internal/api/middleware"
	"github.com/sportsreelstechnical/version-1-sub001/internal/config"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/idempotency"
)

// Deps — зависимости маршрутизатора.
type Deps struct {
	Handler *handlers.APIHandler
	// JWTAuth — может быть nil для тестирования без auth
	JWTAuth     *middleware.JWTAuth
	Permissions middleware.ResolverSource
	Idempotency idempotency.Store
	// Validator — проверка запросов по OpenAPI (опционально)
	Validator func(http.Handler) http.Handler
}

// Server — HTTP-сервер Club Admin.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер со всеми маршрутами API.
func NewRouter(logger *slog.Logger, deps Deps) chi.Router {
	h := deps.Handler
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes напрямую, без API Gateway.
	if deps.JWTAuth != nil {
		router.Use(jwtAuthWithExclusions(deps.JWTAuth, "/health/", "/metrics"))
	}
	if deps.Validator != nil {
		router.Use(deps.Validator)
	}

	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	require := func(key permission.Key) func(http.Handler) http.Handler {
		return middleware.RequirePermission(deps.Permissions, key, logger)
	}
	once := func(next http.Handler) http.Handler { return next }
	if deps.Idempotency != nil {
		once = middleware.Idempotency(deps.Idempotency, logger)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me/permissions", h.GetMyPermissions)
		r.Post("/me/permissions/refresh", h.RefreshMyPermissions)
		r.Get("/me/navigation", h.GetMyNavigation)
		r.Post("/credentials/email", h.SendCredentialsEmail)

		r.Route("/players", func(r chi.Router) {
			r.Use(require(permission.ManagePlayers))
			r.Get("/", h.ListPlayers)
			r.With(once).Post("/", h.CreatePlayer)
			r.Delete("/{id}", h.DeletePlayer)
			r.With(once).Post("/{id}/reset-password", h.ResetPlayerPassword)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(require(permission.ManageStaff))
			r.Get("/", h.ListStaff)
			r.With(once).Post("/", h.CreateStaff)
			r.Delete("/{id}", h.DeleteStaff)
			r.With(once).Post("/{id}/reset-password", h.ResetStaffPassword)
			r.Get("/{id}/permissions", h.GetStaffPermissions)
			r.Put("/{id}/permissions", h.UpdateStaffPermissions)
		})
	})

	return router
}

// jwtAuthWithExclusions оборачивает JWTAuth.Middleware(), пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без JWT.
func jwtAuthWithExclusions(jwtAuth *middleware.JWTAuth, excludePrefixes ...string) func(http.Handler) http.Handler {
	jwtMiddleware := jwtAuth.Middleware()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			jwtMiddleware(next).ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
