// Пакет mailer — доставка учётных данных по email.
//
// HTTPDispatcher — клиент endpoint'а отправки писем (Bearer-токен сессии),
// SendGridSender — отправка через SendGrid, обслуживает сам endpoint.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
)

// Message — тело запроса на отправку учётных данных.
type Message struct {
	To            string         `json:"to"`
	RecipientName string         `json:"recipientName"`
	Username      string         `json:"username"`
	Password      string         `json:"password"`
	UserType      model.UserType `json:"userType"`
	ClubName      string         `json:"clubName,omitempty"`
}

// MessageFromCredential собирает письмо из учётных данных.
func MessageFromCredential(c *model.Credential) *Message {
	return &Message{
		To:            c.Email,
		RecipientName: c.RecipientName,
		Username:      c.Username,
		Password:      c.Password,
		UserType:      c.UserType,
		ClubName:      c.ClubName,
	}
}

// Validate проверяет обязательные поля.
func (m *Message) Validate() error {
	var missing []string
	if strings.TrimSpace(m.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(m.Username) == "" {
		missing = append(missing, "username")
	}
	if m.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("не заполнены поля: %s", strings.Join(missing, ", "))
	}
	switch m.UserType {
	case model.UserTypePlayer, model.UserTypeStaff:
	default:
		return fmt.Errorf("недопустимый userType %q, допустимые: player, staff", m.UserType)
	}
	return nil
}

// Dispatcher — отправка учётных данных одним вызовом.
type Dispatcher interface {
	Send(ctx context.Context, msg *Message) error
}

// DispatchError — отказ сервиса отправки.
// Message — человекочитаемая причина, показываемая оператору.
type DispatchError struct {
	StatusCode int
	Message    string
}

func (e *DispatchError) Error() string {
	return e.Message
}

// ErrNotConfigured — отправка писем не настроена.
var ErrNotConfigured = errors.New("отправка писем не настроена")
