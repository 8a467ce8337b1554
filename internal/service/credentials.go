// credentials.go — генератор учётных данных игроков и персонала.
//
// Генератор выдаёт пару username/пароль при создании и сбросе,
// хранит последний результат для окна показа (CredentialPresenter)
// и ничего не пишет в хранилище при генерации: запись делает вызывающий.
// При сбросе пароль сначала фиксируется в хранилище, и только после
// подтверждения возвращается Credential.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/credential"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
)

// credentialsIssuedTotal — выданные учётные данные.
var credentialsIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ca_credentials_issued_total",
	Help: "Количество выданных учётных данных по типу и операции.",
}, []string{"user_type", "operation"})

// AccountBackend — удалённые операции, нужные генератору.
type AccountBackend interface {
	GeneratePlayerUsername(ctx context.Context, email string) (string, error)
	ResetPlayerPassword(ctx context.Context, playerID, passwordHash string) error
	ResetStaffPassword(ctx context.Context, staffID, passwordHash string) error
	PlayerUsername(ctx context.Context, playerID string) (string, error)
}

// accountBackend склеивает RPC и чтение username игрока.
type accountBackend struct {
	repository.AccountRPC
	players repository.PlayerRepository
}

// NewAccountBackend создаёт AccountBackend поверх репозиториев.
func NewAccountBackend(rpc repository.AccountRPC, players repository.PlayerRepository) AccountBackend {
	return &accountBackend{AccountRPC: rpc, players: players}
}

func (b *accountBackend) PlayerUsername(ctx context.Context, playerID string) (string, error) {
	return b.players.Username(ctx, playerID)
}

// CredentialGenerator — генератор учётных данных.
// Последний результат хранится в памяти до ClearCredentials.
type CredentialGenerator struct {
	backend AccountBackend
	policy  credential.Policy
	hasher  credential.Hasher
	logger  *slog.Logger

	mu   sync.Mutex
	last *model.Credential
}

// NewCredentialGenerator создаёт генератор.
func NewCredentialGenerator(
	backend AccountBackend,
	policy credential.Policy,
	hasher credential.Hasher,
	logger *slog.Logger,
) *CredentialGenerator {
	return &CredentialGenerator{
		backend: backend,
		policy:  policy,
		hasher:  hasher,
		logger:  logger.With(slog.String("component", "credential_generator")),
	}
}

// NewFlow возвращает генератор с теми же зависимостями и пустым состоянием.
// Каждый HTTP-запрос работает со своим экземпляром: последние учётные
// данные одного оператора не видны другому.
func (g *CredentialGenerator) NewFlow() *CredentialGenerator {
	return &CredentialGenerator{
		backend: g.backend,
		policy:  g.policy,
		hasher:  g.hasher,
		logger:  g.logger,
	}
}

// Policy возвращает имя политики паролей.
func (g *CredentialGenerator) Policy() string {
	return g.policy.Name()
}

// HashPassword возвращает хранимый хэш пароля.
func (g *CredentialGenerator) HashPassword(password string) (string, error) {
	hash, err := g.hasher.Hash(password)
	if err != nil {
		return "", generationError("не удалось захэшировать пароль", err)
	}
	return hash, nil
}

// GeneratePlayerCredentials выдаёт учётные данные нового игрока.
// username — из generate_player_username(email), при пустом ответе — local-part email.
func (g *CredentialGenerator) GeneratePlayerCredentials(ctx context.Context, email, name, clubName string) (*model.Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	username, err := g.backend.GeneratePlayerUsername(ctx, email)
	if err != nil {
		return nil, generationError("не удалось сгенерировать username", err)
	}
	if username == "" {
		username = credential.LocalPart(email)
	}

	password, err := g.policy.Generate(ctx, email)
	if err != nil {
		return nil, generationError("не удалось сгенерировать пароль", err)
	}

	cred := &model.Credential{
		Email:         email,
		Username:      username,
		Password:      password,
		RecipientName: name,
		UserType:      model.UserTypePlayer,
		ClubName:      clubName,
	}
	g.store(cred)
	credentialsIssuedTotal.WithLabelValues(string(model.UserTypePlayer), "create").Inc()

	return cred.Clone(), nil
}

// GenerateStaffCredentials выдаёт учётные данные нового сотрудника.
// Логин сотрудника — его email.
func (g *CredentialGenerator) GenerateStaffCredentials(ctx context.Context, email, name, clubName string) (*model.Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	password, err := g.policy.Generate(ctx, email)
	if err != nil {
		return nil, generationError("не удалось сгенерировать пароль", err)
	}

	cred := &model.Credential{
		Email:         email,
		Username:      email,
		Password:      password,
		RecipientName: name,
		UserType:      model.UserTypeStaff,
		ClubName:      clubName,
	}
	g.store(cred)
	credentialsIssuedTotal.WithLabelValues(string(model.UserTypeStaff), "create").Inc()

	return cred.Clone(), nil
}

// ResetPlayerPassword генерирует новый пароль игрока, фиксирует его хэш
// через reset_player_password и перечитывает username.
// При ошибке хранилища Credential не выдаётся, прежний пароль действует.
func (g *CredentialGenerator) ResetPlayerPassword(ctx context.Context, playerID, email, name, clubName string) (*model.Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	password, hash, err := g.newPassword(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := g.backend.ResetPlayerPassword(ctx, playerID, hash); err != nil {
		return nil, g.resetFailed("игрока", playerID, err)
	}

	username, err := g.backend.PlayerUsername(ctx, playerID)
	if err != nil {
		g.logger.Error("Пароль игрока сброшен, но username не прочитан",
			slog.String("player_id", playerID),
			slog.String("error", err.Error()),
		)
		return nil, persistenceError("не удалось перечитать username игрока", err)
	}

	cred := &model.Credential{
		Email:         email,
		Username:      username,
		Password:      password,
		RecipientName: name,
		UserType:      model.UserTypePlayer,
		ClubName:      clubName,
	}
	g.store(cred)
	credentialsIssuedTotal.WithLabelValues(string(model.UserTypePlayer), "reset").Inc()

	g.logger.Info("Пароль игрока сброшен", slog.String("player_id", playerID))
	return cred.Clone(), nil
}

// ResetStaffPassword — как ResetPlayerPassword, но username всегда равен email.
func (g *CredentialGenerator) ResetStaffPassword(ctx context.Context, staffID, email, name, clubName string) (*model.Credential, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	password, hash, err := g.newPassword(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := g.backend.ResetStaffPassword(ctx, staffID, hash); err != nil {
		return nil, g.resetFailed("сотрудника", staffID, err)
	}

	cred := &model.Credential{
		Email:         email,
		Username:      email,
		Password:      password,
		RecipientName: name,
		UserType:      model.UserTypeStaff,
		ClubName:      clubName,
	}
	g.store(cred)
	credentialsIssuedTotal.WithLabelValues(string(model.UserTypeStaff), "reset").Inc()

	g.logger.Info("Пароль сотрудника сброшен", slog.String("staff_id", staffID))
	return cred.Clone(), nil
}

// LastCredential возвращает копию последних выданных учётных данных (nil после очистки).
func (g *CredentialGenerator) LastCredential() *model.Credential {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last.Clone()
}

// ClearCredentials забывает последние учётные данные. Повторный вызов — no-op.
func (g *CredentialGenerator) ClearCredentials() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = nil
}

func (g *CredentialGenerator) store(cred *model.Credential) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = cred.Clone()
}

// newPassword генерирует пароль и его хэш.
func (g *CredentialGenerator) newPassword(ctx context.Context, email string) (string, string, error) {
	password, err := g.policy.Generate(ctx, email)
	if err != nil {
		return "", "", generationError("не удалось сгенерировать пароль", err)
	}
	hash, err := g.HashPassword(password)
	if err != nil {
		return "", "", err
	}
	return password, hash, nil
}

func (g *CredentialGenerator) resetFailed(who, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return persistenceError(fmt.Sprintf("учётная запись %s не найдена", who), ErrNotFound)
	}
	g.logger.Error("Ошибка сброса пароля",
		slog.String("account", who),
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
	return persistenceError(fmt.Sprintf("не удалось сохранить пароль %s", who), err)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || credential.LocalPart(email) == "" {
		return "", generationError("некорректный email", ErrValidation)
	}
	return email, nil
}
