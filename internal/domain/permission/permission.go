// Пакет permission — именованные права персонала клуба.
// Владелец клуба обладает всеми правами, сотрудник — ровно теми,
// что записаны в его строке staff_permissions.
package permission

import (
	"fmt"
	"sort"
)

// Key — имя права (совпадает с колонкой staff_permissions).
type Key string

const (
	ManagePlayers       Key = "can_manage_players"
	UploadMatches       Key = "can_upload_matches"
	EditClubProfile     Key = "can_edit_club_profile"
	ManageStaff         Key = "can_manage_staff"
	UseAIScouting       Key = "can_use_ai_scouting"
	ViewMessages        Key = "can_view_messages"
	ManageTransfers     Key = "can_manage_transfers"
	ViewClubHistory     Key = "can_view_club_history"
	ModifySettings      Key = "can_modify_settings"
	ExploreTalent       Key = "can_explore_talent"
	ViewAnalytics       Key = "can_view_analytics"
	ExportData          Key = "can_export_data"
	ManageSubscriptions Key = "can_manage_subscriptions"
	ViewDashboard       Key = "can_view_dashboard"
)

// AllKeys — фиксированный набор прав в порядке колонок таблицы.
var AllKeys = []Key{
	ManagePlayers,
	UploadMatches,
	EditClubProfile,
	ManageStaff,
	UseAIScouting,
	ViewMessages,
	ManageTransfers,
	ViewClubHistory,
	ModifySettings,
	ExploreTalent,
	ViewAnalytics,
	ExportData,
	ManageSubscriptions,
	ViewDashboard,
}

var known = func() map[Key]struct{} {
	m := make(map[Key]struct{}, len(AllKeys))
	for _, k := range AllKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsKnown проверяет, входит ли ключ в фиксированный набор.
func IsKnown(k Key) bool {
	_, ok := known[k]
	return ok
}

// Set — набор флагов прав.
type Set map[Key]bool

// Full возвращает набор, где все права выданы.
func Full() Set {
	s := make(Set, len(AllKeys))
	for _, k := range AllKeys {
		s[k] = true
	}
	return s
}

// None возвращает набор, где все права отозваны.
func None() Set {
	s := make(Set, len(AllKeys))
	for _, k := range AllKeys {
		s[k] = false
	}
	return s
}

// Has возвращает флаг права. Неизвестные ключи — false.
func (s Set) Has(k Key) bool {
	if s == nil {
		return false
	}
	return s[k]
}

// Clone возвращает копию набора.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	c := make(Set, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Granted возвращает отсортированный список выданных прав.
func (s Set) Granted() []Key {
	var out []Key
	for _, k := range AllKeys {
		if s[k] {
			out = append(out, k)
		}
	}
	return out
}

// FromMap строит набор из внешнего представления (JSON-тело запроса).
// Отсутствующие ключи — false, неизвестные ключи — ошибка.
func FromMap(m map[string]bool) (Set, error) {
	s := None()
	var unknown []string
	for name, v := range m {
		k := Key(name)
		if !IsKnown(k) {
			unknown = append(unknown, name)
			continue
		}
		s[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("неизвестные права: %v", unknown)
	}
	return s, nil
}

// ToMap возвращает набор в виде map[string]bool для сериализации.
func (s Set) ToMap() map[string]bool {
	out := make(map[string]bool, len(AllKeys))
	for _, k := range AllKeys {
		out[string(k)] = s.Has(k)
	}
	return out
}

// MissingRowPolicy — что делать, если для сотрудника нет строки прав.
type MissingRowPolicy string

const (
	// GrantAll — наблюдаемое поведение: неопознанный актор получает все права.
	GrantAll MissingRowPolicy = "grantAll"
	// DenyAll — актор без строки не получает ни одного права.
	DenyAll MissingRowPolicy = "denyAll"
)

// ParseMissingRowPolicy разбирает имя политики.
func ParseMissingRowPolicy(s string) (MissingRowPolicy, error) {
	switch MissingRowPolicy(s) {
	case GrantAll, DenyAll:
		return MissingRowPolicy(s), nil
	default:
		return "", fmt.Errorf("недопустимая политика %q, допустимые: grantAll, denyAll", s)
	}
}

// Apply возвращает набор прав, назначаемый по политике.
func (p MissingRowPolicy) Apply() Set {
	if p == DenyAll {
		return None()
	}
	return Full()
}
