// Пакет errors — единый формат ошибок HTTP API.
// Формат: {"error": {"code": "...", "message": "..."}}.
// Исключение — POST /api/v1/credentials/email: контракт сервиса отправки
// требует плоское тело {"error": "..."} (WritePlainError).
package errors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок, определённые в OpenAPI контракте.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeDuplicateRequest = "DUPLICATE_REQUEST"
	CodeGenerationFailed = "CREDENTIAL_GENERATION_FAILED"
	CodePersistFailed    = "CREDENTIAL_PERSISTENCE_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// WritePlainError записывает {"error": message}.
func WritePlainError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// Conflict — 409 конфликт (дублирующийся ресурс).
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// DuplicateRequest — 409 запрос с этим Idempotency-Key уже обработан или выполняется.
func DuplicateRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeDuplicateRequest, message)
}

// GenerationFailed — 502 не удалось сгенерировать учётные данные.
func GenerationFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, CodeGenerationFailed, message)
}

// PersistenceFailed — 500 не удалось сохранить учётные данные.
func PersistenceFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodePersistFailed, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
