package model

import (
	"time"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
)

// StaffPermissions — строка таблицы staff_permissions.
// Ровно одна строка на сотрудника.
type StaffPermissions struct {
	ID      string
	StaffID string
	// Flags — флаги всех прав из permission.AllKeys
	Flags permission.Set
	// UpdatedBy — кто последним менял права (sub актора)
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaffWithPermissions — строка view staff_with_permissions.
type StaffWithPermissions struct {
	StaffID   string
	UserID    *string
	ClubID    string
	StaffName string
	Email     string
	Role      string
	Flags     permission.Set
}
