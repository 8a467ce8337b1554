package model

// UserType — тип учётной записи, для которой выдан пароль.
type UserType string

const (
	UserTypePlayer UserType = "player"
	UserTypeStaff  UserType = "staff"
)

// Credential — одноразово показываемые учётные данные.
// Живёт только в памяти: от генерации до закрытия окна показа.
// Никогда не сохраняется и не логируется.
type Credential struct {
	// Email — адрес доставки; для персонала также логин
	Email string
	// Username — логин игрока; для персонала совпадает с Email
	Username string
	// Password — одноразовый пароль в открытом виде
	Password string
	// RecipientName — имя для приветствия в письме
	RecipientName string
	UserType      UserType
	// ClubName — название клуба (опционально)
	ClubName string
}

// Clone возвращает независимую копию (nil для nil).
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Роли актора, выдаваемые провайдером аутентификации.
const (
	RoleClub  = "club"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Actor — текущий аутентифицированный пользователь.
type Actor struct {
	// ID — sub из токена
	ID    string
	Email string
	Role  string
	// ClubID — клуб актора (из claim club_id, может быть пустым)
	ClubID string
	// SessionID — идентификатор сессии (claim session_id, может быть пустым)
	SessionID string
}

// SessionKey возвращает ключ сессии актора для кэширования прав.
func (a *Actor) SessionKey() string {
	if a.SessionID == "" {
		return a.ID
	}
	return a.ID + ":" + a.SessionID
}
