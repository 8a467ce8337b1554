// idempotency.go — защита от двойной отправки создающих запросов.
//
// Клиент передаёт заголовок Idempotency-Key. Первый запрос с ключом
// захватывает его, повторы получают 409 DUPLICATE_REQUEST. Ключ
// освобождается, если ответ — ошибка (>= 400): повтор после сбоя разрешён.
// Без заголовка запрос проходит как есть.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
	"github.com/sportsreelstechnical/version-1-sub001/internal/idempotency"
)

// IdempotencyHeader — заголовок ключа идемпотентности.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// Idempotency возвращает middleware захвата Idempotency-Key.
// При недоступности хранилища ключей запрос пропускается (fail open).
func Idempotency(store idempotency.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "idempotency"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				apierrors.ValidationError(w, "Idempotency-Key длиннее 255 символов")
				return
			}

			scoped := scopeKey(r, key)
			claimed, err := store.Claim(r.Context(), scoped)
			if err != nil {
				log.Warn("Хранилище ключей недоступно, запрос пропущен без защиты",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !claimed {
				apierrors.DuplicateRequest(w, "Запрос с этим Idempotency-Key уже выполнен или выполняется")
				return
			}

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= http.StatusBadRequest {
				// Контекст запроса может быть уже отменён.
				if err := store.Release(context.WithoutCancel(r.Context()), scoped); err != nil {
					log.Warn("Не удалось освободить Idempotency-Key",
						slog.String("error", err.Error()),
					)
				}
			}
		})
	}
}

// scopeKey ограничивает ключ актором, методом и путём.
func scopeKey(r *http.Request, key string) string {
	subject := "anonymous"
	if actor := ActorFromContext(r.Context()); actor != nil {
		subject = actor.ID
	}
	return subject + "|" + r.Method + "|" + r.URL.Path + "|" + key
}
