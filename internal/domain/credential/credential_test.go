package credential

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

// queueRandom — Random с заранее заданными результатами.
type queueRandom struct {
	ints    []int
	strings []string
}

func (r *queueRandom) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v
}

func (r *queueRandom) String(length int, alphabet string) string {
	if len(r.strings) == 0 {
		return ""
	}
	v := r.strings[0]
	r.strings = r.strings[1:]
	return v
}

type stubSource struct {
	pw  string
	err error
}

func (s *stubSource) GenerateStaffPassword(context.Context) (string, error) {
	return s.pw, s.err
}

func TestLocalPart(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "jane.doe"},
		{"  coach@club.com ", "coach"},
		{"a@b@c", "a"},
		{"no-at-sign", "no-at-sign"},
		{"@example.com", ""},
	}
	for _, tt := range tests {
		if got := LocalPart(tt.email); got != tt.want {
			t.Errorf("LocalPart(%q) = %q, хотели %q", tt.email, got, tt.want)
		}
	}
}

func TestDerivedPolicy_Bounds(t *testing.T) {
	ctx := context.Background()

	p := NewDerivedPolicy(&queueRandom{ints: []int{0, 8999}})

	low, err := p.Generate(ctx, "jane.doe@example.com")
	if err != nil {
		t.Fatalf("Generate() ошибка: %v", err)
	}
	if low != "jane.doe1000" {
		t.Errorf("нижняя граница: %q, хотели jane.doe1000", low)
	}

	high, err := p.Generate(ctx, "jane.doe@example.com")
	if err != nil {
		t.Fatalf("Generate() ошибка: %v", err)
	}
	if high != "jane.doe9999" {
		t.Errorf("верхняя граница: %q, хотели jane.doe9999", high)
	}
}

// TestDerivedPolicy_Shape — пароль начинается с local-part и
// заканчивается ровно четырьмя цифрами.
func TestDerivedPolicy_Shape(t *testing.T) {
	p := NewDerivedPolicy(NewCryptoRandom())
	emails := []string{
		"jane.doe@example.com",
		"coach@club.com",
		"x@y.z",
		"Player_42+tag@mail.example.org",
		"o'brien@club.ie",
	}
	digits := regexp.MustCompile(`^[0-9]{4}$`)

	for _, email := range emails {
		for i := 0; i < 200; i++ {
			pw, err := p.Generate(context.Background(), email)
			if err != nil {
				t.Fatalf("Generate(%q) ошибка: %v", email, err)
			}
			local := LocalPart(email)
			if !strings.HasPrefix(pw, local) {
				t.Fatalf("Generate(%q) = %q: нет префикса %q", email, pw, local)
			}
			suffix := strings.TrimPrefix(pw, local)
			if !digits.MatchString(suffix) {
				t.Fatalf("Generate(%q) = %q: суффикс %q не 4 цифры", email, pw, suffix)
			}
			if suffix < "1000" {
				t.Fatalf("Generate(%q) = %q: суффикс меньше 1000", email, pw)
			}
		}
	}
}

func TestDerivedPolicy_Pattern(t *testing.T) {
	p := NewDerivedPolicy(NewCryptoRandom())
	pw, err := p.Generate(context.Background(), "jane.doe@example.com")
	if err != nil {
		t.Fatalf("Generate() ошибка: %v", err)
	}
	if !regexp.MustCompile(`^jane\.doe\d{4}$`).MatchString(pw) {
		t.Errorf("пароль %q не соответствует jane\\.doe\\d{4}", pw)
	}
}

func TestDerivedPolicy_EmptyLocalPart(t *testing.T) {
	p := NewDerivedPolicy(NewCryptoRandom())
	if _, err := p.Generate(context.Background(), "@example.com"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("ожидалась ErrInvalidEmail, получено %v", err)
	}
}

func TestStrongPolicy(t *testing.T) {
	p := NewStrongPolicy(NewCryptoRandom(), 16)
	a, err := p.Generate(context.Background(), "jane.doe@example.com")
	if err != nil {
		t.Fatalf("Generate() ошибка: %v", err)
	}
	if len(a) != 16 {
		t.Errorf("длина = %d, хотели 16", len(a))
	}
	if strings.Contains(a, "jane") {
		t.Errorf("strong-пароль не должен зависеть от email: %q", a)
	}
	for _, c := range a {
		if !strings.ContainsRune(strongAlphabet, c) {
			t.Errorf("символ %q вне алфавита", c)
		}
	}

	b, _ := p.Generate(context.Background(), "jane.doe@example.com")
	if a == b {
		t.Error("два strong-пароля подряд совпали")
	}

	short := NewStrongPolicy(&queueRandom{strings: []string{"abc"}}, 16)
	if _, err := short.Generate(context.Background(), ""); err == nil {
		t.Error("ожидалась ошибка при неполной строке")
	}
}

func TestRemotePolicy(t *testing.T) {
	p := NewRemotePolicy(&stubSource{pw: "StaffA1B2C3D4E5"})
	pw, err := p.Generate(context.Background(), "coach@club.com")
	if err != nil || pw != "StaffA1B2C3D4E5" {
		t.Errorf("Generate() = %q, %v", pw, err)
	}

	failing := NewRemotePolicy(&stubSource{err: errors.New("rpc down")})
	if _, err := failing.Generate(context.Background(), "coach@club.com"); err == nil {
		t.Error("ожидалась ошибка удалённой генерации")
	}

	empty := NewRemotePolicy(&stubSource{})
	if _, err := empty.Generate(context.Background(), "coach@club.com"); err == nil {
		t.Error("ожидалась ошибка для пустого результата")
	}
}

func TestNewPolicy(t *testing.T) {
	rnd := NewCryptoRandom()
	for _, name := range []string{PolicyDerived, PolicyStrong} {
		p, err := NewPolicy(name, rnd, 16, nil)
		if err != nil {
			t.Fatalf("NewPolicy(%q) ошибка: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Name() = %q, хотели %q", p.Name(), name)
		}
	}
	if _, err := NewPolicy(PolicyRemote, rnd, 16, nil); err == nil {
		t.Error("remote без источника должна возвращать ошибку")
	}
	if p, err := NewPolicy(PolicyRemote, rnd, 16, &stubSource{}); err != nil || p.Name() != PolicyRemote {
		t.Errorf("NewPolicy(remote) = %v, %v", p, err)
	}
	if _, err := NewPolicy("weak", rnd, 16, nil); err == nil {
		t.Error("ожидалась ошибка для неизвестной политики")
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("jane.doe1234")
	if err != nil {
		t.Fatalf("Hash() ошибка: %v", err)
	}
	if hash == "jane.doe1234" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() вернул не bcrypt-хэш: %q", hash)
	}
	if !h.Verify(hash, "jane.doe1234") {
		t.Error("Verify() = false для верного пароля")
	}
	if h.Verify(hash, "jane.doe1235") {
		t.Error("Verify() = true для неверного пароля")
	}
	if _, err := h.Hash(""); err == nil {
		t.Error("ожидалась ошибка для пустого пароля")
	}
}
