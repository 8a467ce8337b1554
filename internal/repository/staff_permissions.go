package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
)

// StaffPermissionRepository — доступ к staff_permissions и view staff_with_permissions.
type StaffPermissionRepository interface {
	// Create создаёт строку прав сотрудника.
	Create(ctx context.Context, sp *model.StaffPermissions) error
	// GetByStaffID возвращает строку прав сотрудника.
	GetByStaffID(ctx context.Context, staffID string) (*model.StaffPermissions, error)
	// Update перезаписывает все флаги сотрудника.
	Update(ctx context.Context, sp *model.StaffPermissions) error
	// FindByUserID ищет сотрудника с правами по sub провайдера аутентификации.
	FindByUserID(ctx context.Context, userID string) (*model.StaffWithPermissions, error)
}

type staffPermissionRepo struct {
	db DBTX
}

// NewStaffPermissionRepository создаёт репозиторий прав персонала.
func NewStaffPermissionRepository(db DBTX) StaffPermissionRepository {
	return &staffPermissionRepo{db: db}
}

// flagColumns — колонки флагов в порядке permission.AllKeys.
var flagColumns = func() string {
	cols := make([]string, len(permission.AllKeys))
	for i, k := range permission.AllKeys {
		cols[i] = string(k)
	}
	return strings.Join(cols, ", ")
}()

// flagScanner собирает флаги из строки результата.
type flagScanner struct {
	values []bool
}

func newFlagScanner() *flagScanner {
	return &flagScanner{values: make([]bool, len(permission.AllKeys))}
}

func (f *flagScanner) dest() []any {
	out := make([]any, len(f.values))
	for i := range f.values {
		out[i] = &f.values[i]
	}
	return out
}

func (f *flagScanner) set() permission.Set {
	s := make(permission.Set, len(permission.AllKeys))
	for i, k := range permission.AllKeys {
		s[k] = f.values[i]
	}
	return s
}

// flagArgs возвращает значения флагов в порядке колонок.
func flagArgs(s permission.Set) []any {
	args := make([]any, len(permission.AllKeys))
	for i, k := range permission.AllKeys {
		args[i] = s.Has(k)
	}
	return args
}

// placeholders возвращает "$from, $from+1, ..." на n позиций.
func placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}

func (r *staffPermissionRepo) Create(ctx context.Context, sp *model.StaffPermissions) error {
	n := len(permission.AllKeys)
	query := fmt.Sprintf(`
		INSERT INTO staff_permissions (id, staff_id, updated_by, %s)
		VALUES ($1, $2, $3, %s)
		RETURNING created_at, updated_at`, flagColumns, placeholders(4, n))

	args := append([]any{sp.ID, sp.StaffID, sp.UpdatedBy}, flagArgs(sp.Flags)...)
	err := r.db.QueryRow(ctx, query, args...).Scan(&sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: права сотрудника уже заданы", ErrConflict)
		}
		return fmt.Errorf("ошибка создания прав сотрудника: %w", err)
	}
	return nil
}

func (r *staffPermissionRepo) GetByStaffID(ctx context.Context, staffID string) (*model.StaffPermissions, error) {
	query := fmt.Sprintf(`
		SELECT id, staff_id, updated_by, created_at, updated_at, %s
		FROM staff_permissions
		WHERE staff_id = $1`, flagColumns)

	sp := &model.StaffPermissions{}
	flags := newFlagScanner()
	dest := append([]any{&sp.ID, &sp.StaffID, &sp.UpdatedBy, &sp.CreatedAt, &sp.UpdatedAt}, flags.dest()...)

	if err := r.db.QueryRow(ctx, query, staffID).Scan(dest...); err != nil {
		if isNoRow(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения прав сотрудника: %w", err)
	}
	sp.Flags = flags.set()
	return sp, nil
}

func (r *staffPermissionRepo) Update(ctx context.Context, sp *model.StaffPermissions) error {
	sets := make([]string, len(permission.AllKeys))
	for i, k := range permission.AllKeys {
		sets[i] = fmt.Sprintf("%s = $%d", k, i+3)
	}
	query := fmt.Sprintf(`
		UPDATE staff_permissions
		SET updated_by = $2, %s
		WHERE staff_id = $1
		RETURNING id, created_at, updated_at`, strings.Join(sets, ", "))

	args := append([]any{sp.StaffID, sp.UpdatedBy}, flagArgs(sp.Flags)...)
	err := r.db.QueryRow(ctx, query, args...).Scan(&sp.ID, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		if isNoRow(err) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления прав сотрудника: %w", err)
	}
	return nil
}

func (r *staffPermissionRepo) FindByUserID(ctx context.Context, userID string) (*model.StaffWithPermissions, error) {
	query := fmt.Sprintf(`
		SELECT staff_id, user_id, club_id, staff_name, email, role, %s
		FROM staff_with_permissions
		WHERE user_id = $1`, flagColumns)

	row := &model.StaffWithPermissions{}
	flags := newFlagScanner()
	dest := append([]any{&row.StaffID, &row.UserID, &row.ClubID, &row.StaffName, &row.Email, &row.Role}, flags.dest()...)

	if err := r.db.QueryRow(ctx, query, userID).Scan(dest...); err != nil {
		if isNoRow(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска прав персонала: %w", err)
	}
	row.Flags = flags.set()
	return row, nil
}
