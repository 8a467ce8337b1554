// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrForbidden — актор не привязан к клубу или не имеет права.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrInvalidState — операция недопустима в текущем состоянии окна показа.
	ErrInvalidState = errors.New("недопустимое состояние")
)

// CredentialErrorKind — класс сбоя выдачи учётных данных.
type CredentialErrorKind string

const (
	// KindGeneration — сбой генерации username/пароля.
	KindGeneration CredentialErrorKind = "generation"
	// KindPersistence — сбой записи в хранилище; старый пароль остаётся действующим.
	KindPersistence CredentialErrorKind = "persistence"
	// KindDispatch — сбой отправки письма; учётные данные остаются доступными.
	KindDispatch CredentialErrorKind = "dispatch"
)

// CredentialError — типизированный сбой выдачи учётных данных.
// Частичных результатов при такой ошибке нет.
type CredentialError struct {
	Kind    CredentialErrorKind
	Message string
	Err     error
}

func (e *CredentialError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

func generationError(msg string, err error) error {
	return &CredentialError{Kind: KindGeneration, Message: msg, Err: err}
}

func persistenceError(msg string, err error) error {
	return &CredentialError{Kind: KindPersistence, Message: msg, Err: err}
}
