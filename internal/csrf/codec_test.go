package csrf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-master-secret-with-enough-length"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	return codec
}

func TestCodecRoundTrip(t *testing.T) {
	testCases := []struct {
		name      string
		sessionID string
		userID    string
	}{
		{name: "unbound"},
		{name: "session bound", sessionID: "sess-1"},
		{name: "user bound", userID: "user-1"},
		{name: "fully bound", sessionID: "sess-1", userID: "user-1"},
	}

	codec := newTestCodec(t)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := codec.Generate(tc.sessionID, tc.userID)
			require.NoError(t, err)
			assert.NoError(t, codec.Validate(token, tc.sessionID, tc.userID))
		})
	}
}

func TestCodecBindingMismatch(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Generate("sess-1", "user-1")
	require.NoError(t, err)

	assert.ErrorIs(t, codec.Validate(token, "sess-2", "user-1"), ErrBindingMismatch)
	assert.ErrorIs(t, codec.Validate(token, "sess-1", "user-2"), ErrBindingMismatch)

	// a token without bindings cannot satisfy a binding demand
	unbound, err := codec.Generate("", "")
	require.NoError(t, err)
	assert.ErrorIs(t, codec.Validate(unbound, "sess-1", ""), ErrBindingMismatch)
}

func TestCodecExpiryBoundary(t *testing.T) {
	codec := newTestCodec(t)

	issued := time.Now()
	codec.now = func() time.Time { return issued }

	token, err := codec.Generate("", "")
	require.NoError(t, err)

	// one second before the boundary: still valid
	codec.now = func() time.Time { return issued.Add(time.Hour - time.Second) }
	assert.NoError(t, codec.Validate(token, "", ""))

	// exactly at the boundary: already invalid
	codec.now = func() time.Time { return issued.Add(time.Hour) }
	assert.ErrorIs(t, codec.Validate(token, "", ""), ErrTokenExpired)

	// well past the boundary
	codec.now = func() time.Time { return issued.Add(2 * time.Hour) }
	assert.ErrorIs(t, codec.Validate(token, "", ""), ErrTokenExpired)
}

func TestCodecSignatureTampering(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Generate("", "")
	require.NoError(t, err)

	dot := strings.LastIndexByte(token, '.')
	require.Greater(t, dot, 0)
	signature := token[dot+1:]

	// flipping any single signature character must invalidate the token
	for i := 0; i < len(signature); i++ {
		mutated := []byte(signature)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		tampered := token[:dot+1] + string(mutated)
		assert.ErrorIs(t, codec.Validate(tampered, "", ""), ErrSignatureInvalid, "position %d", i)
	}
}

func TestCodecPayloadTampering(t *testing.T) {
	codec := newTestCodec(t)

	token, err := codec.Generate("sess-1", "")
	require.NoError(t, err)

	tampered := strings.Replace(token, ":session:sess-1", ":session:sess-2", 1)
	require.NotEqual(t, token, tampered)
	assert.ErrorIs(t, codec.Validate(tampered, "sess-2", ""), ErrSignatureInvalid)
}

func TestCodecMalformedTokens(t *testing.T) {
	codec := newTestCodec(t)

	for _, token := range []string{
		"",
		"no-dot-at-all",
		".signature-only",
		"payload-only.",
		"notanumber:nonce.sig",
		"1700000000.sig",
	} {
		assert.ErrorIs(t, codec.Validate(token, "", ""), ErrTokenMalformed, token)
	}
}

func TestCodecsWithDifferentSecretsDisagree(t *testing.T) {
	a, err := NewCodec("secret-one-with-enough-length", time.Hour)
	require.NoError(t, err)
	b, err := NewCodec("secret-two-with-enough-length", time.Hour)
	require.NoError(t, err)

	token, err := a.Generate("", "")
	require.NoError(t, err)
	assert.ErrorIs(t, b.Validate(token, "", ""), ErrSignatureInvalid)
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("", time.Hour)
	assert.Error(t, err)
}
