package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// TokenProvider возвращает токен сессии для заголовка Authorization.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken возвращает TokenProvider с фиксированным токеном.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) {
		if token == "" {
			return "", fmt.Errorf("токен сессии не задан")
		}
		return token, nil
	}
}

// HTTPDispatcher — клиент endpoint'а отправки писем.
type HTTPDispatcher struct {
	endpoint      string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// NewHTTPDispatcher создаёт клиента.
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
func NewHTTPDispatcher(endpoint string, timeout time.Duration, caCertPath string, tokenProvider TokenProvider, logger *slog.Logger) (*HTTPDispatcher, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата: %w", err)
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	return &HTTPDispatcher{
		endpoint:      strings.TrimRight(endpoint, "/"),
		httpClient:    httpClient,
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "email_dispatcher")),
	}, nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{RootCAs: pool}, nil
}

// errorBody — тело ответа с ошибкой. Поддерживаются обе формы:
// {"error":"..."} и {"error":{"code":"...","message":"..."}}.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// Send отправляет POST с телом письма.
// Не-2xx ответ превращается в *DispatchError с сообщением из тела.
func (d *HTTPDispatcher) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("сериализация письма: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("создание запроса отправки: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if d.tokenProvider != nil {
		token, err := d.tokenProvider(ctx)
		if err != nil {
			return fmt.Errorf("получение токена сессии: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос к %s: %w", d.endpoint, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		de := &DispatchError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(respBody, resp.StatusCode),
		}
		d.logger.Warn("Отправка письма отклонена",
			slog.Int("status", resp.StatusCode),
			slog.String("error", de.Message),
		)
		return de
	}

	d.logger.Info("Письмо с учётными данными отправлено",
		slog.String("user_type", string(msg.UserType)),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}

// parseErrorMessage извлекает текст ошибки из тела ответа.
func parseErrorMessage(body []byte, status int) string {
	fallback := fmt.Sprintf("сервис отправки вернул статус %d", status)

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Error) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(eb.Error, &s); err == nil && s != "" {
		return s
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(eb.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return fallback
}
