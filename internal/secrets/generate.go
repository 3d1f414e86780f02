package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*-_=+"
)

// generateValue produces a fresh secret value shaped per policy. Token
// types get URL-safe random strings; credential types get mixed-charset
// passwords with at least one character from every class.
func generateValue(t SecretType, policy Policy) (string, error) {
	length := int(policy.MinLength)
	if length < 16 {
		length = 16
	}

	if policy.ComplexityRequired || t == SecretTypeDatabaseCredential {
		return generatePassword(length)
	}

	return generateToken(length)
}

// generateToken returns a URL-safe random string of at least n characters
func generateToken(n int) (string, error) {
	// base64url expands 3 bytes to 4 chars; round the byte count up
	raw := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}

	token := base64.RawURLEncoding.EncodeToString(raw)
	return token[:n], nil
}

// generatePassword returns a random password of length n containing at
// least one lowercase, uppercase, digit and symbol character.
func generatePassword(n int) (string, error) {
	if n < 4 {
		n = 4
	}

	all := lowerChars + upperChars + digitChars + symbolChars
	out := make([]byte, n)

	// One guaranteed character per class, the rest from the full set
	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	for i := range out {
		source := all
		if i < len(classes) {
			source = classes[i]
		}

		c, err := randomChar(source)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// Shuffle so the guaranteed classes are not always in the first four positions
	for i := n - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randomChar(source string) (byte, error) {
	i, err := randomInt(len(source))
	if err != nil {
		return 0, err
	}
	return source[i], nil
}

func randomInt(max int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("reading randomness: %w", err)
	}
	return int(v.Int64()), nil
}
