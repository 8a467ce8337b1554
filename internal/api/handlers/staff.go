// staff.go — обработчики /api/v1/staff endpoints.
// CRUD персонала, сброс пароля, чтение и изменение прав.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
	"github.com/sportsreelstechnical/version-1-sub001/internal/api/middleware"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

// CreateStaff — POST /api/v1/staff.
// Без флагов прав сотрудник создаётся с пустым набором.
func (h *APIHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	perms, err := permissionsFromRequest(req.Permissions)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	result, err := h.staff.Create(r.Context(), actor, service.CreateStaffInput{
		StaffName:   req.StaffName,
		Email:       string(req.Email),
		Role:        req.Role,
		UserID:      req.UserID,
		Permissions: perms,
	})
	if err != nil {
		h.writeServiceError(w, err, "create_staff")
		return
	}

	writeJSON(w, http.StatusCreated, mapStaffWithCredential(result))
}

// ListStaff — GET /api/v1/staff.
func (h *APIHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	limit, offset := pagination(r)

	members, total, err := h.staff.List(r.Context(), actor, limit, offset)
	if err != nil {
		h.writeServiceError(w, err, "list_staff")
		return
	}

	items := make([]staffDTO, len(members))
	for i, m := range members {
		items[i] = mapStaff(m)
	}
	writeJSON(w, http.StatusOK, staffListDTO{Items: items, Total: total})
}

// DeleteStaff — DELETE /api/v1/staff/{id}.
func (h *APIHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	if err := h.staff.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "delete_staff")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetStaffPassword — POST /api/v1/staff/{id}/reset-password.
func (h *APIHandler) ResetStaffPassword(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	result, err := h.staff.ResetPassword(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "reset_staff_password")
		return
	}

	writeJSON(w, http.StatusOK, mapStaffWithCredential(result))
}

// GetStaffPermissions — GET /api/v1/staff/{id}/permissions.
func (h *APIHandler) GetStaffPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	sp, err := h.staff.GetPermissions(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "get_staff_permissions")
		return
	}

	writeJSON(w, http.StatusOK, mapStaffPermissions(sp))
}

// UpdateStaffPermissions — PUT /api/v1/staff/{id}/permissions.
// Тело — полный набор флагов; отсутствующие флаги сбрасываются в false.
// Кэш прав сессий сотрудника не сбрасывается: изменения видны после
// refresh или истечения TTL.
func (h *APIHandler) UpdateStaffPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req map[string]bool
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	flags, err := permission.FromMap(req)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	sp, err := h.staff.UpdatePermissions(r.Context(), actor, chi.URLParam(r, "id"), flags)
	if err != nil {
		h.writeServiceError(w, err, "update_staff_permissions")
		return
	}

	writeJSON(w, http.StatusOK, mapStaffPermissions(sp))
}
