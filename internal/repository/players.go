package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
)

// PlayerRepository — CRUD для таблицы players.
type PlayerRepository interface {
	// Create создаёт игрока. PasswordHash должен быть уже вычислен.
	Create(ctx context.Context, p *model.Player) error
	// GetByID возвращает игрока клуба по UUID.
	GetByID(ctx context.Context, clubID, id string) (*model.Player, error)
	// Username перечитывает username игрока (после сброса пароля).
	Username(ctx context.Context, id string) (string, error)
	// List возвращает игроков клуба.
	List(ctx context.Context, clubID string, limit, offset int) ([]*model.Player, error)
	// Count возвращает количество игроков клуба.
	Count(ctx context.Context, clubID string) (int, error)
	// Delete удаляет игрока клуба.
	Delete(ctx context.Context, clubID, id string) error
}

type playerRepo struct {
	db DBTX
}

// NewPlayerRepository создаёт репозиторий игроков.
func NewPlayerRepository(db DBTX) PlayerRepository {
	return &playerRepo{db: db}
}

const playerColumns = `id, club_id, first_name, last_name, email, username,
	password_hash, password_reset_required, created_at, updated_at`

func scanPlayer(row pgx.Row) (*model.Player, error) {
	p := &model.Player{}
	err := row.Scan(
		&p.ID, &p.ClubID, &p.FirstName, &p.LastName, &p.Email, &p.Username,
		&p.PasswordHash, &p.PasswordResetRequired, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *playerRepo) Create(ctx context.Context, p *model.Player) error {
	query := `
		INSERT INTO players (id, club_id, first_name, last_name, email, username,
			password_hash, password_reset_required)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.ClubID, p.FirstName, p.LastName, p.Email, p.Username,
		p.PasswordHash, p.PasswordResetRequired,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: игрок с таким email или username уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания игрока: %w", err)
	}
	return nil
}

func (r *playerRepo) GetByID(ctx context.Context, clubID, id string) (*model.Player, error) {
	query := fmt.Sprintf(`SELECT %s FROM players WHERE id = $1 AND club_id = $2`, playerColumns)
	p, err := scanPlayer(r.db.QueryRow(ctx, query, id, clubID))
	if err != nil {
		if isNoRow(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения игрока: %w", err)
	}
	return p, nil
}

func (r *playerRepo) Username(ctx context.Context, id string) (string, error) {
	var username string
	err := r.db.QueryRow(ctx, `SELECT username FROM players WHERE id = $1`, id).Scan(&username)
	if err != nil {
		if isNoRow(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка чтения username игрока: %w", err)
	}
	return username, nil
}

func (r *playerRepo) List(ctx context.Context, clubID string, limit, offset int) ([]*model.Player, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM players
		WHERE club_id = $1
		ORDER BY last_name, first_name
		LIMIT $2 OFFSET $3`, playerColumns)

	rows, err := r.db.Query(ctx, query, clubID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка игроков: %w", err)
	}
	defer rows.Close()

	var result []*model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования игрока: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *playerRepo) Count(ctx context.Context, clubID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE club_id = $1`, clubID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта игроков: %w", err)
	}
	return count, nil
}

func (r *playerRepo) Delete(ctx context.Context, clubID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM players WHERE id = $1 AND club_id = $2`, id, clubID)
	if err != nil {
		if isNoRow(err) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления игрока: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
