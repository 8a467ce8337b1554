// Пакет console — вывод окна учётных данных в терминал оператора.
//
// Буфер обмена реализован через escape-последовательность OSC 52:
// терминал (в том числе по SSH) сам кладёт текст в системный буфер.
package console

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

// Clipboard — буфер обмена терминала (OSC 52).
type Clipboard struct {
	w io.Writer
}

// NewClipboard создаёт буфер обмена, пишущий последовательности в w (обычно stderr).
func NewClipboard(w io.Writer) *Clipboard {
	return &Clipboard{w: w}
}

// WriteText отправляет текст в буфер обмена терминала.
func (c *Clipboard) WriteText(_ context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("пустое значение")
	}
	_, err := fmt.Fprintf(c.w, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}

var stateLabels = map[service.PresenterState]string{
	service.StateClosed:    "закрыто",
	service.StateOpen:      "учётные данные выданы",
	service.StateSending:   "отправка письма...",
	service.StateSent:      "письмо отправлено",
	service.StateOpenError: "ошибка отправки",
}

// Render печатает снимок окна показа.
func Render(w io.Writer, view service.PresenterView) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Состояние: %s\n", stateLabels[view.State])
	if c := view.Credential; c != nil {
		if c.RecipientName != "" {
			fmt.Fprintf(&b, "Получатель: %s\n", c.RecipientName)
		}
		fmt.Fprintf(&b, "Email:      %s%s\n", c.Email, copiedMark(view, service.FieldEmail))
		fmt.Fprintf(&b, "Логин:      %s%s\n", c.Username, copiedMark(view, service.FieldUsername))
		fmt.Fprintf(&b, "Пароль:     %s%s\n", c.Password, copiedMark(view, service.FieldPassword))
	}
	if view.Error != "" {
		fmt.Fprintf(&b, "Ошибка: %s\n", view.Error)
		b.WriteString("Учётные данные можно передать вручную.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func copiedMark(view service.PresenterView, f service.Field) string {
	if view.Copied[f] {
		return "  (скопировано)"
	}
	return ""
}
