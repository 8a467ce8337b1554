package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
)

// ClubRepository — доступ к таблице clubs.
type ClubRepository interface {
	// Create создаёт клуб.
	Create(ctx context.Context, club *model.Club) error
	// GetByID возвращает клуб по UUID.
	GetByID(ctx context.Context, id string) (*model.Club, error)
	// FindForUser возвращает клуб, которым владеет пользователь
	// либо в котором он числится сотрудником.
	FindForUser(ctx context.Context, userID string) (*model.Club, error)
}

type clubRepo struct {
	db DBTX
}

// NewClubRepository создаёт репозиторий клубов.
func NewClubRepository(db DBTX) ClubRepository {
	return &clubRepo{db: db}
}

func scanClub(row pgx.Row) (*model.Club, error) {
	c := &model.Club{}
	err := row.Scan(&c.ID, &c.OwnerUserID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *clubRepo) Create(ctx context.Context, club *model.Club) error {
	query := `
		INSERT INTO clubs (id, owner_user_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, club.ID, club.OwnerUserID, club.Name).
		Scan(&club.CreatedAt, &club.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: у пользователя уже есть клуб", ErrConflict)
		}
		return fmt.Errorf("ошибка создания клуба: %w", err)
	}
	return nil
}

func (r *clubRepo) GetByID(ctx context.Context, id string) (*model.Club, error) {
	query := `SELECT id, owner_user_id, name, created_at, updated_at FROM clubs WHERE id = $1`
	c, err := scanClub(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRow(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения клуба: %w", err)
	}
	return c, nil
}

func (r *clubRepo) FindForUser(ctx context.Context, userID string) (*model.Club, error) {
	query := `
		SELECT c.id, c.owner_user_id, c.name, c.created_at, c.updated_at
		FROM clubs c
		WHERE c.owner_user_id = $1
		UNION ALL
		SELECT c.id, c.owner_user_id, c.name, c.created_at, c.updated_at
		FROM clubs c
		JOIN club_staff s ON s.club_id = c.id
		WHERE s.user_id = $1
		LIMIT 1`

	c, err := scanClub(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if isNoRow(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска клуба пользователя: %w", err)
	}
	return c, nil
}
