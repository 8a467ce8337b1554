// Пакет model — доменные сущности Club Admin: клуб, игрок, сотрудник,
// права персонала, одноразовые учётные данные и актор запроса.
package model

import "time"

// Club — клуб, владелец игроков и персонала.
// Хранится в таблице clubs.
type Club struct {
	// ID — UUID записи
	ID string
	// OwnerUserID — идентификатор владельца у провайдера аутентификации (sub)
	OwnerUserID string
	// Name — название клуба
	Name string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// Player — игрок клуба. Входит в систему по username.
type Player struct {
	ID        string
	ClubID    string
	FirstName string
	LastName  string
	Email     string
	// Username — генерируется на сервере из email
	Username string
	// PasswordHash — bcrypt-хэш, plaintext в БД не хранится
	PasswordHash string
	// PasswordResetRequired — пароль выдан администратором и должен быть сменён
	PasswordResetRequired bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// FullName возвращает имя игрока для приветствия в письме.
func (p *Player) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// StaffMember — сотрудник клуба. Входит в систему по email.
type StaffMember struct {
	ID     string
	ClubID string
	// UserID — sub у провайдера аутентификации (nil, пока сотрудник не вошёл)
	UserID                *string
	StaffName             string
	Email                 string
	Role                  string
	PasswordHash          string
	PasswordResetRequired bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
