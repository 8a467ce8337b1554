// credentials.go — POST /api/v1/credentials/email.
// Отправка учётных данных письмом. Ответы об ошибках — плоские {"error": "..."},
// их текст показывается оператору в окне учётных данных.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
	"github.com/sportsreelstechnical/version-1-sub001/internal/api/middleware"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/mailer"
)

var emailSendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ca_email_send_total",
	Help: "Письма с учётными данными, отправленные через SendGrid.",
}, []string{"user_type", "result"})

type emailAck struct {
	Success bool `json:"success"`
}

// emailPermission — право, без которого нельзя отправить учётные данные
// пользователя данного типа.
var emailPermission = map[model.UserType]permission.Key{
	model.UserTypePlayer: permission.ManagePlayers,
	model.UserTypeStaff:  permission.ManageStaff,
}

// SendCredentialsEmail — POST /api/v1/credentials/email.
// Письмо игроку требует can_manage_players, сотруднику — can_manage_staff.
func (h *APIHandler) SendCredentialsEmail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		apierrors.WritePlainError(w, http.StatusUnauthorized, "Требуется аутентификация")
		return
	}
	if h.sender == nil {
		apierrors.WritePlainError(w, http.StatusServiceUnavailable, mailer.ErrNotConfigured.Error())
		return
	}

	var msg mailer.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		apierrors.WritePlainError(w, http.StatusBadRequest, "Некорректный JSON: "+err.Error())
		return
	}
	if err := msg.Validate(); err != nil {
		apierrors.WritePlainError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.perms.Get(r.Context(), actor).HasPermission(emailPermission[msg.UserType]) {
		emailSendTotal.WithLabelValues(string(msg.UserType), "forbidden").Inc()
		apierrors.WritePlainError(w, http.StatusForbidden, "Недостаточно прав для отправки учётных данных")
		return
	}

	if err := h.sender.Send(r.Context(), &msg); err != nil {
		emailSendTotal.WithLabelValues(string(msg.UserType), "error").Inc()

		var dispatchErr *mailer.DispatchError
		if errors.As(err, &dispatchErr) {
			apierrors.WritePlainError(w, http.StatusBadGateway, dispatchErr.Message)
			return
		}
		h.logger.Error("Ошибка отправки письма",
			slog.String("user_type", string(msg.UserType)),
			slog.String("error", err.Error()),
		)
		apierrors.WritePlainError(w, http.StatusBadGateway, "Не удалось отправить письмо")
		return
	}

	emailSendTotal.WithLabelValues(string(msg.UserType), "sent").Inc()
	writeJSON(w, http.StatusOK, emailAck{Success: true})
}
