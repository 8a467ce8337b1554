package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func playerMessage() *Message {
	return &Message{
		To:            "jane.doe@example.com",
		RecipientName: "Jane Doe",
		Username:      "jane.doe",
		Password:      "jane.doe4821",
		UserType:      model.UserTypePlayer,
		ClubName:      "FC Example",
	}
}

func TestHTTPDispatcher_Success(t *testing.T) {
	var gotAuth string
	var got Message

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("метод = %s, хотели POST", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("декодирование тела: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	d, err := NewHTTPDispatcher(srv.URL+"/", time.Second, "", StaticToken("session-token"), testLogger())
	if err != nil {
		t.Fatalf("NewHTTPDispatcher: %v", err)
	}

	if err := d.Send(context.Background(), playerMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAuth != "Bearer session-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if got.To != "jane.doe@example.com" || got.UserType != model.UserTypePlayer || got.ClubName != "FC Example" {
		t.Errorf("тело запроса = %+v", got)
	}
}

func TestHTTPDispatcher_OmitsEmptyClubName(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := NewHTTPDispatcher(srv.URL, time.Second, "", StaticToken("t"), testLogger())
	msg := playerMessage()
	msg.ClubName = ""
	if err := d.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, ok := raw["clubName"]; ok {
		t.Error("clubName не должен передаваться, если пуст")
	}
}

func TestHTTPDispatcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "строка ошибки", status: 500, body: `{"error":"smtp down"}`, wantMsg: "smtp down"},
		{name: "объект ошибки", status: 400, body: `{"error":{"code":"VALIDATION_ERROR","message":"bad to"}}`, wantMsg: "bad to"},
		{name: "не JSON", status: 502, body: `<html>bad gateway</html>`, wantMsg: "сервис отправки вернул статус 502"},
		{name: "пустое тело", status: 401, body: ``, wantMsg: "сервис отправки вернул статус 401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			d, _ := NewHTTPDispatcher(srv.URL, time.Second, "", StaticToken("t"), testLogger())
			err := d.Send(context.Background(), playerMessage())

			var de *DispatchError
			if !errors.As(err, &de) {
				t.Fatalf("ожидалась *DispatchError, получено %v", err)
			}
			if de.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, хотели %d", de.StatusCode, tt.status)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("сообщение = %q, хотели %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestHTTPDispatcher_TokenError(t *testing.T) {
	d, _ := NewHTTPDispatcher("http://127.0.0.1:1", time.Second, "", StaticToken(""), testLogger())
	if err := d.Send(context.Background(), playerMessage()); err == nil {
		t.Error("ожидалась ошибка получения токена")
	}
}

func TestNewHTTPDispatcher_BadCA(t *testing.T) {
	if _, err := NewHTTPDispatcher("https://mail", time.Second, "/nonexistent/ca.pem", nil, testLogger()); err == nil {
		t.Error("ожидалась ошибка чтения CA")
	}
}

func TestMessage_Validate(t *testing.T) {
	if err := playerMessage().Validate(); err != nil {
		t.Errorf("Validate() корректного письма: %v", err)
	}

	m := playerMessage()
	m.To = " "
	m.Password = ""
	err := m.Validate()
	if err == nil || !strings.Contains(err.Error(), "to") || !strings.Contains(err.Error(), "password") {
		t.Errorf("Validate() = %v", err)
	}

	m = playerMessage()
	m.UserType = "scout"
	if err := m.Validate(); err == nil {
		t.Error("ожидалась ошибка для неизвестного userType")
	}
}

func TestTemplates(t *testing.T) {
	msg := playerMessage()
	msg.RecipientName = "<Jane>"

	html, err := RenderHTML(context.Background(), msg)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if strings.Contains(html, "<Jane>") {
		t.Error("имя получателя не экранировано")
	}
	if !strings.Contains(html, "jane.doe4821") || !strings.Contains(html, "Username") {
		t.Errorf("в HTML нет учётных данных: %s", html)
	}

	staff := &Message{To: "coach@club.com", Username: "coach@club.com", Password: "p", UserType: model.UserTypeStaff}
	text := PlainText(staff)
	if !strings.Contains(text, "Email: coach@club.com") {
		t.Errorf("логин персонала должен подписываться как Email: %s", text)
	}
	if !strings.Contains(Subject(staff), "Sports Reels") {
		t.Errorf("Subject() без клуба = %q", Subject(staff))
	}
}

// fakeSendGrid — подмена клиента SendGrid.
type fakeSendGrid struct {
	resp *rest.Response
	err  error
	got  *mail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.got = email
	return f.resp, f.err
}

func TestSendGridSender(t *testing.T) {
	fake := &fakeSendGrid{resp: &rest.Response{StatusCode: 202}}
	s := newSendGridSender(fake, "no-reply@sportsreels.app", "Sports Reels", testLogger())

	if err := s.Send(context.Background(), playerMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if fake.got == nil || fake.got.From.Address != "no-reply@sportsreels.app" {
		t.Fatalf("письмо не передано клиенту: %+v", fake.got)
	}
	if fake.got.Personalizations[0].To[0].Address != "jane.doe@example.com" {
		t.Errorf("получатель = %+v", fake.got.Personalizations[0].To[0])
	}

	fake.resp = &rest.Response{StatusCode: 500, Body: "smtp down"}
	var de *DispatchError
	if err := s.Send(context.Background(), playerMessage()); !errors.As(err, &de) || de.StatusCode != 500 {
		t.Errorf("ожидалась DispatchError 500, получено %v", err)
	}

	fake.err = errors.New("network")
	if err := s.Send(context.Background(), playerMessage()); err == nil {
		t.Error("ожидалась ошибка сети")
	}

	if err := s.Send(context.Background(), &Message{}); err == nil {
		t.Error("ожидалась ошибка валидации")
	}
}

func TestNewSendGridSender_NoKey(t *testing.T) {
	if _, err := NewSendGridSender("", "a@b.c", "X", testLogger()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ожидалась ErrNotConfigured, получено %v", err)
	}
}
