package repository

import (
	"context"
	"fmt"
)

// AccountRPC — удалённые процедуры генерации и сброса учётных данных.
type AccountRPC interface {
	// GeneratePlayerUsername вызывает generate_player_username(email).
	// Пустая строка — хранилище не смогло предложить username.
	GeneratePlayerUsername(ctx context.Context, email string) (string, error)
	// GenerateStaffUsername вызывает generate_staff_username(staff_name, club_id).
	GenerateStaffUsername(ctx context.Context, staffName, clubID string) (string, error)
	// GenerateStaffPassword вызывает generate_staff_password().
	GenerateStaffPassword(ctx context.Context) (string, error)
	// ResetPlayerPassword вызывает reset_player_password(player_id, hash).
	// ErrNotFound — игрок не найден.
	ResetPlayerPassword(ctx context.Context, playerID, passwordHash string) error
	// ResetStaffPassword вызывает reset_staff_password(staff_id, hash).
	// ErrNotFound — сотрудник не найден.
	ResetStaffPassword(ctx context.Context, staffID, passwordHash string) error
}

type accountRPC struct {
	db DBTX
}

// NewAccountRPC создаёт клиент удалённых процедур.
func NewAccountRPC(db DBTX) AccountRPC {
	return &accountRPC{db: db}
}

func (r *accountRPC) GeneratePlayerUsername(ctx context.Context, email string) (string, error) {
	var username *string
	if err := r.db.QueryRow(ctx, `SELECT generate_player_username($1)`, email).Scan(&username); err != nil {
		return "", fmt.Errorf("generate_player_username: %w", err)
	}
	if username == nil {
		return "", nil
	}
	return *username, nil
}

func (r *accountRPC) GenerateStaffUsername(ctx context.Context, staffName, clubID string) (string, error) {
	var username *string
	if err := r.db.QueryRow(ctx, `SELECT generate_staff_username($1, $2)`, staffName, clubID).Scan(&username); err != nil {
		return "", fmt.Errorf("generate_staff_username: %w", err)
	}
	if username == nil {
		return "", nil
	}
	return *username, nil
}

func (r *accountRPC) GenerateStaffPassword(ctx context.Context) (string, error) {
	var password string
	if err := r.db.QueryRow(ctx, `SELECT generate_staff_password()`).Scan(&password); err != nil {
		return "", fmt.Errorf("generate_staff_password: %w", err)
	}
	return password, nil
}

func (r *accountRPC) ResetPlayerPassword(ctx context.Context, playerID, passwordHash string) error {
	return r.reset(ctx, `SELECT reset_player_password($1, $2)`, "reset_player_password", playerID, passwordHash)
}

func (r *accountRPC) ResetStaffPassword(ctx context.Context, staffID, passwordHash string) error {
	return r.reset(ctx, `SELECT reset_staff_password($1, $2)`, "reset_staff_password", staffID, passwordHash)
}

func (r *accountRPC) reset(ctx context.Context, query, name, id, hash string) error {
	var found bool
	if err := r.db.QueryRow(ctx, query, id, hash).Scan(&found); err != nil {
		if isNoRow(err) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
