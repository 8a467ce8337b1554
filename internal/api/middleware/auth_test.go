package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key-ca"

const testIssuer = "https://auth.test/club"

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewJWTAuthWithKeyfunc(kf, testIssuer, testLogger())
}

// signToken подписывает claims, добавляя стандартные iss/exp/iat.
func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = testIssuer
	}
	claims["exp"] = jwt.NewNumericDate(exp)
	claims["iat"] = jwt.NewNumericDate(time.Now())

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestJWTAuth_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := signToken(t, key, jwt.MapClaims{
		"sub":        "user-123",
		"email":      "coach@club.com",
		"role":       "staff",
		"club_id":    "club-1",
		"session_id": "sess-9",
	}, false)

	called := false
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor := ActorFromContext(r.Context())
		if actor == nil {
			t.Fatal("актор не найден в контексте")
		}
		if actor.ID != "user-123" || actor.Email != "coach@club.com" || actor.Role != "staff" {
			t.Errorf("актор = %+v", actor)
		}
		if actor.ClubID != "club-1" || actor.SessionID != "sess-9" {
			t.Errorf("club_id/session_id не извлечены: %+v", actor)
		}
		if TokenFromContext(r.Context()) != tokenStr {
			t.Error("токен не сохранён в контексте")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !called {
		t.Errorf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
}

func TestJWTAuth_SidFallback(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := signToken(t, key, jwt.MapClaims{"sub": "owner", "role": "club", "sid": "oidc-sid"}, false)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := ActorFromContext(r.Context()).SessionKey(); got != "owner:oidc-sid" {
			t.Errorf("SessionKey = %q", got)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestJWTAuth_Rejected(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tests := []struct {
		name   string
		header func() string
	}{
		{"нет заголовка", func() string { return "" }},
		{"basic auth", func() string { return "Basic dXNlcjpwYXNz" }},
		{"без префикса Bearer", func() string { return "token123" }},
		{"пустой bearer", func() string { return "Bearer " }},
		{"просроченный", func() string {
			return "Bearer " + signToken(t, key, jwt.MapClaims{"sub": "u"}, true)
		}},
		{"чужой issuer", func() string {
			return "Bearer " + signToken(t, key, jwt.MapClaims{"sub": "u", "iss": "https://evil"}, false)
		}},
		{"чужая подпись", func() string {
			return "Bearer " + signToken(t, otherKey, jwt.MapClaims{"sub": "u"}, false)
		}},
		{"без sub", func() string {
			return "Bearer " + signToken(t, key, jwt.MapClaims{"email": "a@b.c"}, false)
		}},
	}

	handler := auth.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/players", nil)
			if h := tt.header(); h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("ожидался статус 401, получен %d", rec.Code)
			}
		})
	}
}

func TestJWKSReadinessChecker(t *testing.T) {
	key := generateTestKey(t)

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"ключи есть", http.StatusOK, string(buildJWKSetJSON(&key.PublicKey, testKeyID)), "ok"},
		{"нет ключей", http.StatusOK, `{"keys":[]}`, "degraded"},
		{"невалидный JSON", http.StatusOK, `not json`, "degraded"},
		{"ошибка сервера", http.StatusBadGateway, ``, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			checker, err := NewJWKSReadinessChecker(srv.URL, "", time.Second)
			if err != nil {
				t.Fatalf("NewJWKSReadinessChecker: %v", err)
			}
			if status, msg := checker.CheckReady(); status != tt.want {
				t.Errorf("CheckReady = %q (%s), ожидалось %q", status, msg, tt.want)
			}
		})
	}
}
