package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
)

// Subject возвращает тему письма по типу учётной записи.
func Subject(msg *Message) string {
	club := msg.ClubName
	if club == "" {
		club = "Sports Reels"
	}
	if msg.UserType == model.UserTypeStaff {
		return fmt.Sprintf("Доступ сотрудника %s", club)
	}
	return fmt.Sprintf("Ваш аккаунт игрока %s", club)
}

// loginLabel — подпись поля логина: персонал входит по email.
func loginLabel(t model.UserType) string {
	if t == model.UserTypeStaff {
		return "Email"
	}
	return "Username"
}

func greeting(msg *Message) string {
	if strings.TrimSpace(msg.RecipientName) == "" {
		return "Здравствуйте!"
	}
	return fmt.Sprintf("Здравствуйте, %s!", msg.RecipientName)
}

// PlainText возвращает текстовую версию письма.
func PlainText(msg *Message) string {
	var b strings.Builder
	b.WriteString(greeting(msg))
	b.WriteString("\n\n")
	if msg.ClubName != "" {
		fmt.Fprintf(&b, "Клуб %s создал для вас учётную запись.\n\n", msg.ClubName)
	} else {
		b.WriteString("Для вас создана учётная запись.\n\n")
	}
	fmt.Fprintf(&b, "%s: %s\n", loginLabel(msg.UserType), msg.Username)
	fmt.Fprintf(&b, "Пароль: %s\n\n", msg.Password)
	b.WriteString("При первом входе смените пароль.\n")
	return b.String()
}

// CredentialsEmail — HTML-тело письма.
func CredentialsEmail(msg *Message) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		intro := "Для вас создана учётная запись."
		if msg.ClubName != "" {
			intro = fmt.Sprintf("Клуб %s создал для вас учётную запись.", msg.ClubName)
		}

		_, err := fmt.Fprintf(w,
			`<div style="font-family:sans-serif;max-width:560px">`+
				`<p>%s</p><p>%s</p>`+
				`<table style="border-collapse:collapse">`+
				`<tr><td style="padding:4px 12px 4px 0"><b>%s</b></td><td><code>%s</code></td></tr>`+
				`<tr><td style="padding:4px 12px 4px 0"><b>Пароль</b></td><td><code>%s</code></td></tr>`+
				`</table>`+
				`<p>При первом входе смените пароль.</p>`+
				`</div>`,
			templ.EscapeString(greeting(msg)),
			templ.EscapeString(intro),
			templ.EscapeString(loginLabel(msg.UserType)),
			templ.EscapeString(msg.Username),
			templ.EscapeString(msg.Password),
		)
		return err
	})
}

// RenderHTML рендерит HTML-тело письма в строку.
func RenderHTML(ctx context.Context, msg *Message) (string, error) {
	var buf bytes.Buffer
	if err := CredentialsEmail(msg).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("рендеринг письма: %w", err)
	}
	return buf.String(), nil
}
