package security

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// ValidationCodeDigits is the length of phone verification codes.
const ValidationCodeDigits = 6

// GenerateNumericCode returns a random decimal code of n digits.
func GenerateNumericCode(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("code length must be positive")
	}
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

// HashCode hashes a verification code for storage.
func HashCode(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckCode reports whether code matches hash.
func CheckCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// EqualTokens compares two shared secrets in constant time.
func EqualTokens(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
