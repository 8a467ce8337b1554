// permissions.go — вычисление эффективных прав текущего актора.
//
// Алгоритм:
//  1. нет актора — прав нет (nil), isStaff=false;
//  2. роль club — полный набор без обращения к хранилищу;
//  3. иначе строка из staff_with_permissions по sub актора:
//     есть — ровно её флаги и isStaff=true,
//     нет — набор по MissingRowPolicy и isStaff=false;
//  4. ошибка чтения — прав нет (nil), ошибка логируется и наружу не уходит.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
)

// permissionLookupsTotal — обращения к staff_with_permissions по результату.
var permissionLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ca_permission_lookups_total",
	Help: "Количество чтений строки прав персонала по результату.",
}, []string{"result"})

// ActorSource — источник текущего актора.
type ActorSource interface {
	// CurrentActor возвращает актора или nil, если сессии нет.
	CurrentActor() *model.Actor
}

// StaticActor — ActorSource с фиксированным актором (одна сессия).
type StaticActor struct {
	Actor *model.Actor
}

// CurrentActor возвращает зафиксированного актора.
func (s StaticActor) CurrentActor() *model.Actor {
	return s.Actor
}

// StaffPermissionLookup — чтение строки прав персонала.
// repository.ErrNotFound означает отсутствие строки.
type StaffPermissionLookup interface {
	FindByUserID(ctx context.Context, userID string) (*model.StaffWithPermissions, error)
}

// PermissionResolver — эффективные права одного актора.
type PermissionResolver struct {
	actors ActorSource
	lookup StaffPermissionLookup
	policy permission.MissingRowPolicy
	logger *slog.Logger

	mu      sync.RWMutex
	perms   permission.Set
	isStaff bool
	loading bool
	failed  bool
	// gen отбрасывает результаты устаревших вычислений
	gen uint64
}

// NewPermissionResolver создаёт резолвер. До первого Resolve прав нет.
func NewPermissionResolver(
	actors ActorSource,
	lookup StaffPermissionLookup,
	policy permission.MissingRowPolicy,
	logger *slog.Logger,
) *PermissionResolver {
	return &PermissionResolver{
		actors: actors,
		lookup: lookup,
		policy: policy,
		logger: logger.With(slog.String("component", "permission_resolver")),
	}
}

// Resolve вычисляет права текущего актора.
func (r *PermissionResolver) Resolve(ctx context.Context) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.loading = true
	r.mu.Unlock()

	perms, isStaff, failed := r.compute(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.perms = perms
	r.isStaff = isStaff
	r.failed = failed
	r.loading = false
}

// Refresh повторно вычисляет права (после их изменения в другом месте).
func (r *PermissionResolver) Refresh(ctx context.Context) {
	r.Resolve(ctx)
}

func (r *PermissionResolver) compute(ctx context.Context) (permission.Set, bool, bool) {
	actor := r.actors.CurrentActor()
	if actor == nil {
		return nil, false, false
	}

	if actor.Role == model.RoleClub {
		return permission.Full(), false, false
	}

	row, err := r.lookup.FindByUserID(ctx, actor.ID)
	switch {
	case err == nil:
		permissionLookupsTotal.WithLabelValues("found").Inc()
		return row.Flags.Clone(), true, false
	case errors.Is(err, repository.ErrNotFound):
		permissionLookupsTotal.WithLabelValues("missing").Inc()
		r.logger.Debug("Строка прав не найдена, применяется политика",
			slog.String("actor", actor.ID),
			slog.String("policy", string(r.policy)),
		)
		return r.policy.Apply(), false, false
	default:
		permissionLookupsTotal.WithLabelValues("error").Inc()
		r.logger.Error("Ошибка чтения прав персонала",
			slog.String("actor", actor.ID),
			slog.String("error", err.Error()),
		)
		return nil, false, true
	}
}

// HasPermission сообщает, есть ли право. false при загрузке, отсутствии прав
// и для неизвестных ключей.
func (r *PermissionResolver) HasPermission(key permission.Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loading || r.perms == nil {
		return false
	}
	return r.perms.Has(key)
}

// Permissions возвращает копию набора прав (nil, если прав нет).
func (r *PermissionResolver) Permissions() permission.Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.perms.Clone()
}

// IsStaff сообщает, найдена ли строка прав персонала.
func (r *PermissionResolver) IsStaff() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isStaff
}

// Loading сообщает, идёт ли вычисление.
func (r *PermissionResolver) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Failed сообщает, завершилось ли последнее вычисление ошибкой чтения.
func (r *PermissionResolver) Failed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failed
}
