package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
)

// StaffRepository — CRUD для таблицы club_staff.
type StaffRepository interface {
	// Create создаёт сотрудника.
	Create(ctx context.Context, s *model.StaffMember) error
	// CreateWithPermissions атомарно создаёт сотрудника и его строку прав.
	CreateWithPermissions(ctx context.Context, s *model.StaffMember, sp *model.StaffPermissions) error
	// GetByID возвращает сотрудника клуба по UUID.
	GetByID(ctx context.Context, clubID, id string) (*model.StaffMember, error)
	// List возвращает сотрудников клуба.
	List(ctx context.Context, clubID string, limit, offset int) ([]*model.StaffMember, error)
	// Count возвращает количество сотрудников клуба.
	Count(ctx context.Context, clubID string) (int, error)
	// Delete удаляет сотрудника клуба (строка прав удаляется каскадно).
	Delete(ctx context.Context, clubID, id string) error
}

type staffRepo struct {
	db DBTX
}

// NewStaffRepository создаёт репозиторий персонала.
func NewStaffRepository(db DBTX) StaffRepository {
	return &staffRepo{db: db}
}

const staffColumns = `id, club_id, user_id, staff_name, email, role,
	password_hash, password_reset_required, created_at, updated_at`

func scanStaff(row pgx.Row) (*model.StaffMember, error) {
	s := &model.StaffMember{}
	err := row.Scan(
		&s.ID, &s.ClubID, &s.UserID, &s.StaffName, &s.Email, &s.Role,
		&s.PasswordHash, &s.PasswordResetRequired, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *staffRepo) Create(ctx context.Context, s *model.StaffMember) error {
	query := `
		INSERT INTO club_staff (id, club_id, user_id, staff_name, email, role,
			password_hash, password_reset_required)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.ClubID, s.UserID, s.StaffName, s.Email, s.Role,
		s.PasswordHash, s.PasswordResetRequired,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: сотрудник с таким email уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания сотрудника: %w", err)
	}
	return nil
}

func (r *staffRepo) CreateWithPermissions(ctx context.Context, s *model.StaffMember, sp *model.StaffPermissions) error {
	return inTx(ctx, r.db, func(tx DBTX) error {
		if err := NewStaffRepository(tx).Create(ctx, s); err != nil {
			return err
		}
		sp.StaffID = s.ID
		return NewStaffPermissionRepository(tx).Create(ctx, sp)
	})
}

func (r *staffRepo) GetByID(ctx context.Context, clubID, id string) (*model.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM club_staff WHERE id = $1 AND club_id = $2`, staffColumns)
	s, err := scanStaff(r.db.QueryRow(ctx, query, id, clubID))
	if err != nil {
		if isNoRow(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения сотрудника: %w", err)
	}
	return s, nil
}

func (r *staffRepo) List(ctx context.Context, clubID string, limit, offset int) ([]*model.StaffMember, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM club_staff
		WHERE club_id = $1
		ORDER BY staff_name
		LIMIT $2 OFFSET $3`, staffColumns)

	rows, err := r.db.Query(ctx, query, clubID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка персонала: %w", err)
	}
	defer rows.Close()

	var result []*model.StaffMember
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования сотрудника: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *staffRepo) Count(ctx context.Context, clubID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM club_staff WHERE club_id = $1`, clubID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта персонала: %w", err)
	}
	return count, nil
}

func (r *staffRepo) Delete(ctx context.Context, clubID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM club_staff WHERE id = $1 AND club_id = $2`, id, clubID)
	if err != nil {
		if isNoRow(err) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления сотрудника: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
