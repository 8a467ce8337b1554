// staff.go — управление персоналом клуба и его правами.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
)

// StaffWithCredential — сотрудник и его учётные данные (только при создании/сбросе).
type StaffWithCredential struct {
	*model.StaffMember
	Permissions permission.Set
	Credential  *model.Credential
}

// CreateStaffInput — данные нового сотрудника.
type CreateStaffInput struct {
	StaffName string
	Email     string
	Role      string
	// UserID — sub у провайдера аутентификации, если учётка уже заведена
	UserID *string
	// Permissions — начальные права (nil — без прав)
	Permissions permission.Set
}

// StaffService — сервис управления персоналом.
type StaffService struct {
	staff     repository.StaffRepository
	perms     repository.StaffPermissionRepository
	scope     *ClubScope
	generator *CredentialGenerator
	logger    *slog.Logger
}

// NewStaffService создаёт сервис персонала.
func NewStaffService(
	staff repository.StaffRepository,
	perms repository.StaffPermissionRepository,
	scope *ClubScope,
	generator *CredentialGenerator,
	logger *slog.Logger,
) *StaffService {
	return &StaffService{
		staff:     staff,
		perms:     perms,
		scope:     scope,
		generator: generator,
		logger:    logger.With(slog.String("component", "staff_service")),
	}
}

// Create создаёт сотрудника со строкой прав и возвращает его учётные данные.
func (s *StaffService) Create(ctx context.Context, actor *model.Actor, in CreateStaffInput) (*StaffWithCredential, error) {
	in.StaffName = strings.TrimSpace(in.StaffName)
	if in.StaffName == "" {
		return nil, fmt.Errorf("%w: имя сотрудника обязательно", ErrValidation)
	}
	if in.Role == "" {
		in.Role = model.RoleStaff
	}
	flags := in.Permissions
	if flags == nil {
		flags = permission.None()
	}

	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}

	flow := s.generator.NewFlow()
	cred, err := flow.GenerateStaffCredentials(ctx, in.Email, in.StaffName, club.Name)
	if err != nil {
		return nil, err
	}

	hash, err := flow.HashPassword(cred.Password)
	if err != nil {
		flow.ClearCredentials()
		return nil, err
	}

	member := &model.StaffMember{
		ID:                    uuid.New().String(),
		ClubID:                club.ID,
		UserID:                in.UserID,
		StaffName:             in.StaffName,
		Email:                 cred.Email,
		Role:                  in.Role,
		PasswordHash:          hash,
		PasswordResetRequired: true,
	}
	sp := &model.StaffPermissions{
		ID:        uuid.New().String(),
		Flags:     flags.Clone(),
		UpdatedBy: actor.ID,
	}

	if err := s.staff.CreateWithPermissions(ctx, member, sp); err != nil {
		flow.ClearCredentials()
		if errors.Is(err, repository.ErrConflict) {
			return nil, persistenceError("сотрудник с таким email уже существует", ErrConflict)
		}
		return nil, persistenceError("не удалось сохранить сотрудника", err)
	}

	s.logger.Info("Сотрудник создан",
		slog.String("staff_id", member.ID),
		slog.String("club_id", club.ID),
		slog.Int("permissions", len(sp.Flags.Granted())),
		slog.String("actor", actor.ID),
	)

	return &StaffWithCredential{StaffMember: member, Permissions: sp.Flags, Credential: cred}, nil
}

// List возвращает персонал клуба актора и общее количество.
func (s *StaffService) List(ctx context.Context, actor *model.Actor, limit, offset int) ([]*model.StaffMember, int, error) {
	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, 0, err
	}

	members, err := s.staff.List(ctx, club.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("получение списка персонала: %w", err)
	}
	total, err := s.staff.Count(ctx, club.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт персонала: %w", err)
	}
	return members, total, nil
}

// Delete удаляет сотрудника клуба актора вместе с его правами.
func (s *StaffService) Delete(ctx context.Context, actor *model.Actor, id string) error {
	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return err
	}

	if err := s.staff.Delete(ctx, club.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление сотрудника: %w", err)
	}

	s.logger.Info("Сотрудник удалён",
		slog.String("staff_id", id),
		slog.String("actor", actor.ID),
	)
	return nil
}

// ResetPassword выдаёт сотруднику новый пароль. Логин — email сотрудника.
func (s *StaffService) ResetPassword(ctx context.Context, actor *model.Actor, id string) (*StaffWithCredential, error) {
	club, member, err := s.member(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	cred, err := s.generator.NewFlow().ResetStaffPassword(ctx, member.ID, member.Email, member.StaffName, club.Name)
	if err != nil {
		return nil, err
	}

	member.PasswordResetRequired = true
	return &StaffWithCredential{StaffMember: member, Credential: cred}, nil
}

// GetPermissions возвращает права сотрудника клуба актора.
func (s *StaffService) GetPermissions(ctx context.Context, actor *model.Actor, id string) (*model.StaffPermissions, error) {
	if _, _, err := s.member(ctx, actor, id); err != nil {
		return nil, err
	}

	sp, err := s.perms.GetByStaffID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение прав сотрудника: %w", err)
	}
	return sp, nil
}

// UpdatePermissions перезаписывает права сотрудника.
// Кэш прав других сессий не сбрасывается: изменения видны после их Refresh.
func (s *StaffService) UpdatePermissions(ctx context.Context, actor *model.Actor, id string, flags permission.Set) (*model.StaffPermissions, error) {
	if flags == nil {
		return nil, fmt.Errorf("%w: не заданы права", ErrValidation)
	}
	if _, _, err := s.member(ctx, actor, id); err != nil {
		return nil, err
	}

	sp := &model.StaffPermissions{StaffID: id, Flags: flags.Clone(), UpdatedBy: actor.ID}
	if err := s.perms.Update(ctx, sp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление прав сотрудника: %w", err)
	}

	s.logger.Info("Права сотрудника обновлены",
		slog.String("staff_id", id),
		slog.Any("granted", sp.Flags.Granted()),
		slog.String("actor", actor.ID),
	)
	return sp, nil
}

// member возвращает клуб актора и сотрудника этого клуба.
func (s *StaffService) member(ctx context.Context, actor *model.Actor, id string) (*model.Club, *model.StaffMember, error) {
	club, err := s.scope.Resolve(ctx, actor)
	if err != nil {
		return nil, nil, err
	}

	member, err := s.staff.GetByID(ctx, club.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("получение сотрудника: %w", err)
	}
	return club, member, nil
}
