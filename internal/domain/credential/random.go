package credential

import (
	"crypto/rand"
	"math/big"
)

// Random — источник случайных чисел, подменяемый в тестах.
type Random interface {
	// Intn возвращает случайное число в [0, n)
	Intn(n int) int
	// String возвращает строку длины length из символов alphabet
	String(length int, alphabet string) string
}

// CryptoRandom — реализация Random поверх crypto/rand.
type CryptoRandom struct{}

// NewCryptoRandom создаёт CryptoRandom.
func NewCryptoRandom() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn возвращает криптографически случайное число в [0, n).
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand на поддерживаемых платформах не возвращает ошибок
		panic("crypto/rand: " + err.Error())
	}
	return int(v.Int64())
}

// String возвращает криптографически случайную строку из alphabet.
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(out)
}
