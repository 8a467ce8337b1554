// Пакет gate — условный показ элементов интерфейса по правам актора.
//
// Gate влияет только на отображение. Доступ проверяется на сервере
// (middleware.RequirePermission), данные для обоих берутся из одного резолвера.
package gate

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
)

// DefaultDisabledLabel — подпись поверх недоступного элемента.
const DefaultDisabledLabel = "Недостаточно прав"

// State — источник прав для отрисовки. Реализуется service.PermissionResolver.
type State interface {
	Loading() bool
	HasPermission(key permission.Key) bool
}

// Decision — результат проверки права для отрисовки.
type Decision int

const (
	// RenderNothing — ничего не выводить.
	RenderNothing Decision = iota
	// RenderChildren — вывести содержимое без изменений.
	RenderChildren
	// RenderDisabled — вывести содержимое неактивным, с подписью поверх.
	RenderDisabled
	// RenderFallback — вывести замену.
	RenderFallback
)

func (d Decision) String() string {
	switch d {
	case RenderChildren:
		return "children"
	case RenderDisabled:
		return "disabled"
	case RenderFallback:
		return "fallback"
	default:
		return "nothing"
	}
}

// Options — поведение Gate при отсутствии права.
type Options struct {
	// Fallback — что показать вместо содержимого
	Fallback templ.Component
	// ShowDisabled — показать содержимое неактивным вместо скрытия (приоритетнее Fallback)
	ShowDisabled bool
	// DisabledLabel — подпись поверх неактивного содержимого
	DisabledLabel string
}

// Allowed сообщает, есть ли у актора право. Во время загрузки — false.
func Allowed(state State, key permission.Key) bool {
	if state == nil || state.Loading() {
		return false
	}
	return state.HasPermission(key)
}

// Decide выбирает, что отрисовать.
func Decide(state State, key permission.Key, opts Options) Decision {
	if state != nil && state.Loading() {
		return RenderNothing
	}
	if Allowed(state, key) {
		return RenderChildren
	}
	switch {
	case opts.ShowDisabled:
		return RenderDisabled
	case opts.Fallback != nil:
		return RenderFallback
	default:
		return RenderNothing
	}
}

// Gate оборачивает children проверкой права key.
func Gate(state State, key permission.Key, children templ.Component, opts Options) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		switch Decide(state, key, opts) {
		case RenderChildren:
			return renderChildren(ctx, w, children)
		case RenderDisabled:
			return renderDisabled(ctx, w, key, children, opts.DisabledLabel)
		case RenderFallback:
			return opts.Fallback.Render(ctx, w)
		default:
			return nil
		}
	})
}

// Style передаёт результат проверки в fn, который сам решает, как отрисоваться.
func Style(state State, key permission.Key, fn func(allowed bool) templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		c := fn(Allowed(state, key))
		if c == nil {
			return nil
		}
		return c.Render(ctx, w)
	})
}

func renderChildren(ctx context.Context, w io.Writer, children templ.Component) error {
	if children == nil {
		return nil
	}
	return children.Render(ctx, w)
}

func renderDisabled(ctx context.Context, w io.Writer, key permission.Key, children templ.Component, label string) error {
	if label == "" {
		label = DefaultDisabledLabel
	}
	if _, err := io.WriteString(w, `<div class="permission-gate permission-gate--disabled" aria-disabled="true" data-permission="`+
		templ.EscapeString(string(key))+`" style="position:relative">`+
		`<div class="permission-gate__content" style="opacity:0.5;pointer-events:none" inert>`); err != nil {
		return err
	}
	if err := renderChildren(ctx, w, children); err != nil {
		return err
	}
	_, err := io.WriteString(w, `</div><span class="permission-gate__overlay" role="note">`+
		templ.EscapeString(label)+`</span></div>`)
	return err
}
