// Package csrf implements stateless signed-token CSRF protection for
// both API and server-rendered traffic. Tokens are process-scoped, never
// tenant-scoped: CSRF is a transport-layer defense independent of the
// tenant boundary.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Codec validation errors
var (
	// ErrTokenMalformed indicates the token does not have the expected shape
	ErrTokenMalformed = errors.New("csrf token malformed")

	// ErrTokenExpired indicates the token is older than its lifetime
	ErrTokenExpired = errors.New("csrf token expired")

	// ErrSignatureInvalid indicates the signature does not verify
	ErrSignatureInvalid = errors.New("csrf token signature invalid")

	// ErrBindingMismatch indicates a required session or user binding is absent
	ErrBindingMismatch = errors.New("csrf token binding mismatch")
)

// DefaultTokenLifetime bounds token validity when none is configured
const DefaultTokenLifetime = time.Hour

// Codec generates and validates signed CSRF tokens. The signing key is
// derived from the process master secret with HKDF so the raw secret is
// never used directly as key material. Safe for concurrent use.
type Codec struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewCodec creates a token codec from the process master secret
func NewCodec(masterSecret string, lifetime time.Duration) (*Codec, error) {
	if masterSecret == "" {
		return nil, errors.New("csrf master secret must not be empty")
	}

	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte("trustguard-csrf-signing"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("deriving csrf signing key: %w", err)
	}

	return &Codec{
		key:      key,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Lifetime returns the configured token lifetime
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Generate issues a fresh token, optionally bound to a session and user.
// The payload is timestamp:nonce with optional binding segments, followed
// by an HMAC-SHA256 signature over the whole payload.
func (c *Codec) Generate(sessionID, userID string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("reading nonce randomness: %w", err)
	}

	payload := fmt.Sprintf("%d:%s", c.now().Unix(), base64.RawURLEncoding.EncodeToString(nonce))
	if sessionID != "" {
		payload += ":session:" + sessionID
	}
	if userID != "" {
		payload += ":user:" + userID
	}

	return payload + "." + c.sign(payload), nil
}

// Validate checks a token. Four independent checks all must pass: shape,
// expiry, signature and requested bindings. Expiry is checked regardless
// of the signature; a stale token is invalid even when perfectly signed.
// A token aged exactly one lifetime is already expired.
func (c *Codec) Validate(token, sessionID, userID string) error {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return ErrTokenMalformed
	}

	segments := strings.Split(payload, ":")
	if len(segments) < 2 {
		return ErrTokenMalformed
	}

	issuedAt, err := strconv.ParseInt(segments[0], 10, 64)
	if err != nil {
		return ErrTokenMalformed
	}

	if c.now().Unix()-issuedAt >= int64(c.lifetime.Seconds()) {
		return ErrTokenExpired
	}

	if !hmac.Equal([]byte(sig), []byte(c.sign(payload))) {
		return ErrSignatureInvalid
	}

	if sessionID != "" && !strings.Contains(payload, ":session:"+sessionID) {
		return ErrBindingMismatch
	}

	if userID != "" && !strings.Contains(payload, ":user:"+userID) {
		return ErrBindingMismatch
	}

	return nil
}

// sign computes the base64url HMAC-SHA256 signature of payload
func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
