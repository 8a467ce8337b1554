// handler.go — основной обработчик API Club Admin.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/mailer"
	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

// PlayerAccounts — операции над учётными записями игроков.
type PlayerAccounts interface {
	Create(ctx context.Context, actor *model.Actor, in service.CreatePlayerInput) (*service.PlayerWithCredential, error)
	List(ctx context.Context, actor *model.Actor, limit, offset int) ([]*model.Player, int, error)
	Delete(ctx context.Context, actor *model.Actor, id string) error
	ResetPassword(ctx context.Context, actor *model.Actor, id string) (*service.PlayerWithCredential, error)
}

// StaffAccounts — операции над учётными записями персонала и их правами.
type StaffAccounts interface {
	Create(ctx context.Context, actor *model.Actor, in service.CreateStaffInput) (*service.StaffWithCredential, error)
	List(ctx context.Context, actor *model.Actor, limit, offset int) ([]*model.StaffMember, int, error)
	Delete(ctx context.Context, actor *model.Actor, id string) error
	ResetPassword(ctx context.Context, actor *model.Actor, id string) (*service.StaffWithCredential, error)
	GetPermissions(ctx context.Context, actor *model.Actor, id string) (*model.StaffPermissions, error)
	UpdatePermissions(ctx context.Context, actor *model.Actor, id string, flags permission.Set) (*model.StaffPermissions, error)
}

// PermissionSessions — резолверы прав по сессиям (service.PermissionCache).
type PermissionSessions interface {
	Get(ctx context.Context, actor *model.Actor) *service.PermissionResolver
	Refresh(ctx context.Context, actor *model.Actor) *service.PermissionResolver
}

// APIHandler — основной обработчик API Club Admin.
type APIHandler struct {
	health  *HealthHandler
	players PlayerAccounts
	staff   StaffAccounts
	perms   PermissionSessions
	// sender — nil, если отправка писем не настроена
	sender mailer.Dispatcher
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	players PlayerAccounts,
	staff StaffAccounts,
	perms PermissionSessions,
	sender mailer.Dispatcher,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:  health,
		players: players,
		staff:   staff,
		perms:   perms,
		sender:  sender,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// pagination читает limit/offset из query и нормализует их.
func pagination(r *http.Request) (int, int) {
	l := defaultLimit
	o := 0

	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		l = min(max(v, 1), maxLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		o = v
	}

	return l, o
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
// Ошибки записи, вызванные конфликтом или отсутствием записи, отдаются как 409/404.
// op — имя операции для журнала.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, op string) {
	var credErr *service.CredentialError
	isCredErr := errors.As(err, &credErr)

	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, messageOf(credErr, isCredErr, "Ресурс не найден"))
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, messageOf(credErr, isCredErr, "Ресурс уже существует"))
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case isCredErr:
		h.logger.Error("Ошибка выдачи учётных данных",
			slog.String("op", op),
			slog.String("kind", string(credErr.Kind)),
			slog.String("error", err.Error()),
		)
		if credErr.Kind == service.KindGeneration {
			apierrors.GenerationFailed(w, credErr.Message)
			return
		}
		apierrors.PersistenceFailed(w, credErr.Message)
	default:
		h.logger.Error("Ошибка операции", slog.String("op", op), slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

func messageOf(credErr *service.CredentialError, ok bool, fallback string) string {
	if ok && credErr.Message != "" {
		return credErr.Message
	}
	return fallback
}
