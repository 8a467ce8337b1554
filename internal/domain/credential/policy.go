// Пакет credential — генерация и хэширование одноразовых паролей.
//
// Политики:
//   - derived: local-part email + 4 цифры (1000–9999). Удобно для операторов,
//     но пароль восстановим по email — НЕ является мерой безопасности;
//   - strong: случайная строка из crypto/rand;
//   - remote: пароль генерирует хранилище (generate_staff_password()).
//
// В БД попадает только bcrypt-хэш, plaintext живёт лишь в model.Credential.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidEmail — из email нельзя получить local-part.
var ErrInvalidEmail = errors.New("некорректный email: пустая часть до @")

// Имена политик (совпадают со значениями CA_PASSWORD_POLICY).
const (
	PolicyDerived = "derived"
	PolicyStrong  = "strong"
	PolicyRemote  = "remote"
)

// Диапазон числового суффикса политики derived.
const (
	derivedSuffixMin = 1000
	derivedSuffixMax = 9999
)

// strongAlphabet — алфавит политики strong (без неоднозначных 0/O, 1/l/I).
const strongAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%^&*-_=+"

// Policy — политика генерации одноразового пароля.
type Policy interface {
	// Name возвращает имя политики.
	Name() string
	// Generate возвращает новый пароль для учётной записи с данным email.
	Generate(ctx context.Context, email string) (string, error)
}

// LocalPart возвращает часть email до первого @.
// Для строки без @ возвращается вся строка.
func LocalPart(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// DerivedPolicy — пароль вида <local-part><NNNN>.
type DerivedPolicy struct {
	rnd Random
}

// NewDerivedPolicy создаёт политику derived.
func NewDerivedPolicy(rnd Random) *DerivedPolicy {
	return &DerivedPolicy{rnd: rnd}
}

// Name возвращает "derived".
func (p *DerivedPolicy) Name() string { return PolicyDerived }

// Generate возвращает local-part email с четырёхзначным суффиксом.
func (p *DerivedPolicy) Generate(_ context.Context, email string) (string, error) {
	local := LocalPart(email)
	if local == "" {
		return "", ErrInvalidEmail
	}
	suffix := derivedSuffixMin + p.rnd.Intn(derivedSuffixMax-derivedSuffixMin+1)
	return local + strconv.Itoa(suffix), nil
}

// StrongPolicy — случайный пароль фиксированной длины.
type StrongPolicy struct {
	rnd    Random
	length int
}

// NewStrongPolicy создаёт политику strong.
func NewStrongPolicy(rnd Random, length int) *StrongPolicy {
	return &StrongPolicy{rnd: rnd, length: length}
}

// Name возвращает "strong".
func (p *StrongPolicy) Name() string { return PolicyStrong }

// Generate возвращает случайный пароль. email не используется.
func (p *StrongPolicy) Generate(_ context.Context, _ string) (string, error) {
	pw := p.rnd.String(p.length, strongAlphabet)
	if len(pw) != p.length {
		return "", fmt.Errorf("генерация пароля: получено %d символов вместо %d", len(pw), p.length)
	}
	return pw, nil
}

// PasswordSource — удалённая генерация пароля (RPC generate_staff_password).
type PasswordSource interface {
	GenerateStaffPassword(ctx context.Context) (string, error)
}

// RemotePolicy — пароль генерирует хранилище.
type RemotePolicy struct {
	src PasswordSource
}

// NewRemotePolicy создаёт политику remote.
func NewRemotePolicy(src PasswordSource) *RemotePolicy {
	return &RemotePolicy{src: src}
}

// Name возвращает "remote".
func (p *RemotePolicy) Name() string { return PolicyRemote }

// Generate запрашивает пароль у хранилища.
func (p *RemotePolicy) Generate(ctx context.Context, _ string) (string, error) {
	pw, err := p.src.GenerateStaffPassword(ctx)
	if err != nil {
		return "", fmt.Errorf("удалённая генерация пароля: %w", err)
	}
	if pw == "" {
		return "", errors.New("удалённая генерация пароля: пустой результат")
	}
	return pw, nil
}

// NewPolicy создаёт политику по имени.
// src нужен только для remote и может быть nil для остальных.
func NewPolicy(name string, rnd Random, strongLength int, src PasswordSource) (Policy, error) {
	switch name {
	case PolicyDerived:
		return NewDerivedPolicy(rnd), nil
	case PolicyStrong:
		return NewStrongPolicy(rnd, strongLength), nil
	case PolicyRemote:
		if src == nil {
			return nil, errors.New("политика remote требует источник паролей")
		}
		return NewRemotePolicy(src), nil
	default:
		return nil, fmt.Errorf("неизвестная политика паролей %q", name)
	}
}
