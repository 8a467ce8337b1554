// players.go — обработчики /api/v1/players endpoints.
// Создание игрока и сброс пароля возвращают учётные данные один раз.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
	"github.com/sportsreelstechnical/version-1-sub001/internal/api/middleware"
	"github.com/sportsreelstechnical/version-1-sub001/internal/service"
)

// CreatePlayer — POST /api/v1/players.
func (h *APIHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	result, err := h.players.Create(r.Context(), actor, service.CreatePlayerInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     string(req.Email),
	})
	if err != nil {
		h.writeServiceError(w, err, "create_player")
		return
	}

	writeJSON(w, http.StatusCreated, mapPlayerWithCredential(result))
}

// ListPlayers — GET /api/v1/players.
func (h *APIHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	limit, offset := pagination(r)

	players, total, err := h.players.List(r.Context(), actor, limit, offset)
	if err != nil {
		h.writeServiceError(w, err, "list_players")
		return
	}

	items := make([]playerDTO, len(players))
	for i, p := range players {
		items[i] = mapPlayer(p)
	}
	writeJSON(w, http.StatusOK, playerListDTO{Items: items, Total: total})
}

// DeletePlayer — DELETE /api/v1/players/{id}.
func (h *APIHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	if err := h.players.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err, "delete_player")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPlayerPassword — POST /api/v1/players/{id}/reset-password.
func (h *APIHandler) ResetPlayerPassword(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	result, err := h.players.ResetPassword(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "reset_player_password")
		return
	}

	writeJSON(w, http.StatusOK, mapPlayerWithCredential(result))
}
