// dto.go — JSON-представления ресурсов API (см. openapi.yaml).
package handlers

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

type credentialDTO struct {
	Email         string         `json:"email"`
	Username      string         `json:"username"`
	Password      string         `json:"password"`
	RecipientName string         `json:"recipientName,omitempty"`
	UserType      model.UserType `json:"userType"`
	ClubName      string         `json:"clubName,omitempty"`
}

type playerDTO struct {
	ID                    string     `json:"id"`
	ClubID                string     `json:"clubId"`
	FirstName             string     `json:"firstName"`
	LastName              string     `json:"lastName"`
	Email                 string     `json:"email"`
	Username              string     `json:"username"`
	PasswordResetRequired bool       `json:"passwordResetRequired"`
	CreatedAt             *time.Time `json:"createdAt,omitempty"`
}

type playerWithCredentialDTO struct {
	playerDTO
	Credential credentialDTO `json:"credential"`
}

type playerListDTO struct {
	Items []playerDTO `json:"items"`
	Total int         `json:"total"`
}

type createPlayerRequest struct {
	FirstName string              `json:"firstName"`
	LastName  string              `json:"lastName"`
	Email     openapi_types.Email `json:"email"`
}

type staffDTO struct {
	ID                    string     `json:"id"`
	ClubID                string     `json:"clubId"`
	UserID                *string    `json:"userId"`
	StaffName             string     `json:"staffName"`
	Email                 string     `json:"email"`
	Role                  string     `json:"role"`
	PasswordResetRequired bool       `json:"passwordResetRequired"`
	CreatedAt             *time.Time `json:"createdAt,omitempty"`
}

type staffWithCredentialDTO struct {
	staffDTO
	Permissions map[string]bool `json:"permissions,omitempty"`
	Credential  credentialDTO   `json:"credential"`
}

type staffListDTO struct {
	Items []staffDTO `json:"items"`
	Total int        `json:"total"`
}

type createStaffRequest struct {
	StaffName   string              `json:"staffName"`
	Email       openapi_types.Email `json:"email"`
	Role        string              `json:"role"`
	UserID      *string             `json:"userId"`
	Permissions map[string]bool     `json:"permissions"`
}

type staffPermissionsDTO struct {
	StaffID     string          `json:"staffId"`
	Permissions map[string]bool `json:"permissions"`
	UpdatedBy   string          `json:"updatedBy,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

type myPermissionsDTO struct {
	Permissions map[string]bool `json:"permissions"`
	IsStaff     bool            `json:"isStaff"`
	Loading     bool            `json:"loading"`
}

// --- Маппинг ---

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func mapCredential(c *model.Credential) credentialDTO {
	if c == nil {
		return credentialDTO{}
	}
	return credentialDTO{
		Email:         c.Email,
		Username:      c.Username,
		Password:      c.Password,
		RecipientName: c.RecipientName,
		UserType:      c.UserType,
		ClubName:      c.ClubName,
	}
}

func mapPlayer(p *model.Player) playerDTO {
	return playerDTO{
		ID:                    p.ID,
		ClubID:                p.ClubID,
		FirstName:             p.FirstName,
		LastName:              p.LastName,
		Email:                 p.Email,
		Username:              p.Username,
		PasswordResetRequired: p.PasswordResetRequired,
		CreatedAt:             timePtr(p.CreatedAt),
	}
}

func mapPlayerWithCredential(p *service.PlayerWithCredential) playerWithCredentialDTO {
	return playerWithCredentialDTO{
		playerDTO:  mapPlayer(p.Player),
		Credential: mapCredential(p.Credential),
	}
}

func mapStaff(m *model.StaffMember) staffDTO {
	return staffDTO{
		ID:                    m.ID,
		ClubID:                m.ClubID,
		UserID:                m.UserID,
		StaffName:             m.StaffName,
		Email:                 m.Email,
		Role:                  m.Role,
		PasswordResetRequired: m.PasswordResetRequired,
		CreatedAt:             timePtr(m.CreatedAt),
	}
}

func mapStaffWithCredential(s *service.StaffWithCredential) staffWithCredentialDTO {
	dto := staffWithCredentialDTO{
		staffDTO:   mapStaff(s.StaffMember),
		Credential: mapCredential(s.Credential),
	}
	if s.Permissions != nil {
		dto.Permissions = s.Permissions.ToMap()
	}
	return dto
}

func mapStaffPermissions(sp *model.StaffPermissions) staffPermissionsDTO {
	return staffPermissionsDTO{
		StaffID:     sp.StaffID,
		Permissions: sp.Flags.ToMap(),
		UpdatedBy:   sp.UpdatedBy,
		UpdatedAt:   timePtr(sp.UpdatedAt),
	}
}

func mapMyPermissions(r *service.PermissionResolver) myPermissionsDTO {
	dto := myPermissionsDTO{
		IsStaff: r.IsStaff(),
		Loading: r.Loading(),
	}
	if perms := r.Permissions(); perms != nil {
		dto.Permissions = perms.ToMap()
	}
	return dto
}

// permissionsFromRequest разбирает флаги прав из тела запроса.
// nil в ответе — флаги не переданы.
func permissionsFromRequest(m map[string]bool) (permission.Set, error) {
	if m == nil {
		return nil, nil
	}
	return permission.FromMap(m)
}
