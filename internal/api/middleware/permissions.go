// permissions.go — серверная проверка прав актора.
// Использует тот же кэш резолверов, что и отрисовка интерфейса.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

const contextKeyResolver contextKey = "permission_resolver"

// ResolverSource — источник резолвера прав сессии (service.PermissionCache).
type ResolverSource interface {
	Get(ctx context.Context, actor *model.Actor) *service.PermissionResolver
}

// RequirePermission пропускает запрос, только если у актора есть право key.
// Ошибка чтения прав трактуется как отсутствие права.
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequirePermission(source ResolverSource, key permission.Key, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				apierrors.Unauthorized(w, "Отсутствует актор в контексте")
				return
			}

			resolver := source.Get(r.Context(), actor)
			if !resolver.HasPermission(key) {
				if resolver.Failed() {
					logger.Warn("Права не прочитаны, доступ запрещён",
						slog.String("actor", actor.ID),
						slog.String("permission", string(key)),
					)
				}
				apierrors.Forbidden(w, fmt.Sprintf("Недостаточно прав: требуется %s", key))
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyResolver, resolver)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolverFromContext возвращает резолвер, проверенный RequirePermission.
func ResolverFromContext(ctx context.Context) *service.PermissionResolver {
	r, _ := ctx.Value(contextKeyResolver).(*service.PermissionResolver)
	return r
}
