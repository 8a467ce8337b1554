// me.go — права текущего актора: JSON-представление и HTML-навигация.
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"

	apierrors "github.com/sportsreelstechnical/version-1-sub001/internal/api/errors"
	"github.com/sportsreelstechnical/version-1-sub001/internal/api/middleware"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
	"github.com/sportsreelstechnical/version-1-sub001/internal/gate"
)

// GetMyPermissions — GET /api/v1/me/permissions.
// Для владельца клуба — полный набор, для персонала — строка прав,
// при ошибке чтения — permissions: null.
func (h *APIHandler) GetMyPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	writeJSON(w, http.StatusOK, mapMyPermissions(h.perms.Get(r.Context(), actor)))
}

// RefreshMyPermissions — POST /api/v1/me/permissions/refresh.
// Перечитывает права сессии, например после их изменения владельцем.
func (h *APIHandler) RefreshMyPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	writeJSON(w, http.StatusOK, mapMyPermissions(h.perms.Refresh(r.Context(), actor)))
}

// navItem — пункт навигации панели клуба.
type navItem struct {
	key   permission.Key
	href  string
	label string
	opts  gate.Options
}

var navItems = []navItem{
	{key: permission.ViewDashboard, href: "/dashboard", label: "Обзор"},
	{key: permission.ManagePlayers, href: "/players", label: "Игроки", opts: gate.Options{ShowDisabled: true}},
	{key: permission.ManageStaff, href: "/staff", label: "Персонал", opts: gate.Options{ShowDisabled: true}},
	{key: permission.UploadMatches, href: "/matches", label: "Матчи"},
	{key: permission.UseAIScouting, href: "/scouting", label: "AI-скаутинг"},
	{key: permission.ExploreTalent, href: "/talent", label: "Поиск талантов"},
	{key: permission.ManageTransfers, href: "/transfers", label: "Трансферы"},
	{key: permission.ViewMessages, href: "/messages", label: "Сообщения"},
	{key: permission.ViewAnalytics, href: "/analytics", label: "Аналитика"},
	{key: permission.ViewClubHistory, href: "/history", label: "История клуба"},
	{key: permission.EditClubProfile, href: "/club", label: "Профиль клуба"},
	{key: permission.ModifySettings, href: "/settings", label: "Настройки"},
	{
		key: permission.ManageSubscriptions, href: "/subscriptions", label: "Подписка",
		opts: gate.Options{Fallback: textComponent(`<span class="nav__hint">Подпиской управляет владелец клуба</span>`)},
	},
}

// GetMyNavigation — GET /api/v1/me/navigation.
// HTML-фрагмент меню: недоступные пункты скрыты или показаны неактивными.
func (h *APIHandler) GetMyNavigation(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	resolver := h.perms.Get(r.Context(), actor)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := navigation(resolver).Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга навигации", "error", err)
	}
}

// navigation собирает меню из пунктов, закрытых проверкой прав.
func navigation(state gate.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="club-nav"><ul>`); err != nil {
			return err
		}
		for _, item := range navItems {
			link := textComponent(`<li><a href="` + templ.EscapeString(item.href) + `">` +
				templ.EscapeString(item.label) + `</a></li>`)
			if err := gate.Gate(state, item.key, link, item.opts).Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}

		export := gate.Style(state, permission.ExportData, func(allowed bool) templ.Component {
			if allowed {
				return textComponent(`<button class="club-nav__export" type="button">Экспорт</button>`)
			}
			return textComponent(`<button class="club-nav__export" type="button" disabled>Экспорт</button>`)
		})
		if err := export.Render(ctx, w); err != nil {
			return err
		}

		_, err := io.WriteString(w, `</nav>`)
		return err
	})
}

// textComponent — готовый HTML-фрагмент как templ.Component.
func textComponent(html string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, html)
		return err
	})
}
