// openapi.go — проверка входящих запросов по OpenAPI-контракту (kin-openapi).
// Запросы к путям вне контракта пропускаются: на них ответит роутер.
package middleware

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
)

// plainErrorExtension — операция отвечает ошибками вида {"error": "..."}.
const plainErrorExtension = "x-plain-error"

// OpenAPIValidator возвращает middleware проверки параметров и тела запроса.
// Аутентификация проверяется JWTAuth, здесь она не дублируется.
func OpenAPIValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("построение роутера OpenAPI: %w", err)
	}

	opts := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    opts,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				writeValidationError(w, route, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func writeValidationError(w http.ResponseWriter, route *routers.Route, err error) {
	msg := "Запрос не соответствует контракту: " + err.Error()
	if route.Operation != nil {
		if _, ok := route.Operation.Extensions[plainErrorExtension]; ok {
			apierrors.WritePlainError(w, http.StatusBadRequest, msg)
			return
		}
	}
	apierrors.ValidationError(w, msg)
}
