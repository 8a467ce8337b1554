package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/repository"
)

// ClubScope определяет клуб, от имени которого действует актор.
type ClubScope struct {
	clubs repository.ClubRepository
}

// NewClubScope создаёт ClubScope.
func NewClubScope(clubs repository.ClubRepository) *ClubScope {
	return &ClubScope{clubs: clubs}
}

// Resolve возвращает клуб актора: из claim club_id, иначе по владельцу
// или членству в персонале. Актор без клуба получает ErrForbidden.
func (s *ClubScope) Resolve(ctx context.Context, actor *model.Actor) (*model.Club, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: нет актора", ErrForbidden)
	}

	var (
		club *model.Club
		err  error
	)
	if actor.ClubID != "" {
		club, err = s.clubs.GetByID(ctx, actor.ClubID)
	} else {
		club, err = s.clubs.FindForUser(ctx, actor.ID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: актор не привязан к клубу", ErrForbidden)
		}
		return nil, fmt.Errorf("определение клуба актора: %w", err)
	}
	return club, nil
}
