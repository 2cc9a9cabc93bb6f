// Package joincode generates the short invite codes used to join a stokvel.
package joincode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet is the set of characters a join code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the length of codes handed out for new stokvels.
const DefaultLength = 6

// MinLength and MaxLength bound the configurable code length.
const (
	MinLength = 4
	MaxLength = 16
)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a random code of the given length. Each character is picked
// uniformly from Alphabet using crypto/rand. Uniqueness is the caller's concern.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("join code length must be positive, got %d", length)
	}

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		code[i] = Alphabet[n.Int64()]
	}
	return string(code), nil
}

// Valid reports whether code has the given length and only uses Alphabet.
func Valid(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// WellFormed reports whether code could have been handed out under any
// configured length.
func WellFormed(code string) bool {
	return len(code) >= MinLength && len(code) <= MaxLength && Valid(code, len(code))
}
