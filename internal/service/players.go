// players.go — управление игроками клуба.
// Создание: генерация учётных данных → запись игрока с bcrypt-хэшем →
// возврат учётных данных для одноразового показа.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
)

// PlayerWithCredential — игрок и его учётные данные (только при создании/сбросе).
type PlayerWithCredential struct {
	*model.Player
	Credential *model.Credential
}

// CreatePlayerInput — данные нового игрока.
type CreatePlayerInput struct {
	FirstName string
	LastName  string
	Email     string
}

// PlayerService — сервис управления игроками.
type PlayerService struct {
	players   repository.PlayerRepository
	scope     *ClubScope
	generator *CredentialGenerator
	logger    *slog.Logger
}

// NewPlayerService создаёт сервис игроков.
func NewPlayerService(
	players repository.PlayerRepository,
	scope *ClubScope,
	generator *CredentialGenerator,
	logger *slog.Logger,
) *PlayerService {
	return &PlayerService{
		players:   players,
		scope:     scope,
		generator: generator,
		logger:    logger.With(slog.String("component", "player_service")),
	}
}

// Create создаёт игрока и возвращает его учётные данные.
// Сбой записи не выдаёт учётных данных.
func (s *PlayerService) Create(ctx context.Context, actor *model.Actor, in CreatePlayerInput) (*PlayerWithCredential, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: имя и фамилия обязательны", ErrValidation)
	}

	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	p := &model.Player{
		ID:                    uuid.New().String(),
		ClubID:                club.ID,
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		PasswordResetRequired: true,
	}

	flow := s.generator.NewFlow()
	cred, err := flow.GeneratePlayerCredentials(ctx, in.Email, p.FullName(), club.Name)
	if err != nil {
		return nil, err
	}

	hash, err := flow.HashPassword(cred.Password)
	if err != nil {
		flow.ClearCredentials()
		return nil, err
	}

	p.Email = cred.Email
	p.Username = cred.Username
	p.PasswordHash = hash

	if err := s.players.Create(ctx, p); err != nil {
		flow.ClearCredentials()
		if errors.Is(err, repository.ErrConflict) {
			return nil, persistenceError("игрок с таким email или username уже существует", ErrConflict)
		}
		return nil, persistenceError("не удалось сохранить игрока", err)
	}

	s.logger.Info("Игрок создан",
		slog.String("player_id", p.ID),
		slog.String("club_id", club.ID),
		slog.String("actor", actor.ID),
	)

	return &PlayerWithCredential{Player: p, Credential: cred}, nil
}

// List возвращает игроков клуба актора и общее количество.
func (s *PlayerService) List(ctx context.Context, actor *model.Actor, limit, offset int) ([]*model.Player, int, error) {
	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	players, err := s.players.List(ctx, club.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("получение списка игроков: %w", err)
	}
	total, err := s.players.Count(ctx, club.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт игроков: %w", err)
	}
	return players, total, nil
}

// Delete удаляет игрока клуба актора.
func (s *PlayerService) Delete(ctx context.Context, actor *model.Actor, id string) error {
	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return err
	}

	if err := s.players.Delete(ctx, club.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление игрока: %w", err)
	}

	s.logger.Info("Игрок удалён",
		slog.String("player_id", id),
		slog.String("actor", actor.ID),
	)
	return nil
}

// ResetPassword выдаёт игроку новый пароль.
func (s *PlayerService) ResetPassword(ctx context.Context, actor *model.Actor, id string) (*PlayerWithCredential, error) {
	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	p, err := s.players.GetByID(ctx, club.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение игрока: %w", err)
	}

	cred, err := s.generator.NewFlow().ResetPlayerPassword(ctx, p.ID, p.Email, p.FullName(), club.Name)
	if err != nil {
		return nil, err
	}

	p.Username = cred.Username
	p.PasswordResetRequired = true
	return &PlayerWithCredential{Player: p, Credential: cred}, nil
}
