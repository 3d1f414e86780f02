package secrets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustguard/internal/config"
	"trustguard/internal/observability"
)

func newTestEngine(t *testing.T, env config.Environment, hardened Store) *Engine {
	t.Helper()

	engine, err := NewEngine(env, hardened, observability.NewNopLogger())
	require.NoError(t, err)
	return engine
}

func TestNewEngineProductionRequiresHardenedStore(t *testing.T) {
	_, err := NewEngine(config.EnvProduction, nil, observability.NewNopLogger())
	require.Error(t, err)

	var violation *EnvironmentPolicyViolation
	assert.True(t, errors.As(err, &violation))
	assert.Equal(t, config.EnvProduction, violation.Environment)
}

func TestNewEngineNonProductionWiresFallback(t *testing.T) {
	for _, env := range []config.Environment{config.EnvDevelopment, config.EnvTesting, config.EnvStaging} {
		engine, err := NewEngine(env, nil, observability.NewNopLogger())
		require.NoError(t, err, env.String())
		assert.True(t, engine.HasFallbackStore(), env.String())
	}
}

func TestNewEngineProductionNeverWiresFallback(t *testing.T) {
	engine, err := NewEngine(config.EnvProduction, NewMemoryStore(), observability.NewNopLogger(),
		WithFallbackStore(NewMemoryStore()))
	require.NoError(t, err)
	assert.False(t, engine.HasFallbackStore())
}

func TestGetSecretHardenedFirst(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "app", "api_key", "from-hardened"))

	engine := newTestEngine(t, config.EnvDevelopment, store)

	value, err := engine.GetSecret(context.Background(), SecretTypeAPIKey, "app", "api_key", "")
	require.NoError(t, err)
	assert.Equal(t, "from-hardened", value)
}

func TestGetSecretTenantNamespacing(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "tenants/acme/app", "api_key", "acme-value"))
	require.NoError(t, store.Put(context.Background(), "tenants/globex/app", "api_key", "globex-value"))

	engine := newTestEngine(t, config.EnvDevelopment, store)

	value, err := engine.GetSecret(context.Background(), SecretTypeAPIKey, "app", "api_key", "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme-value", value)

	value, err = engine.GetSecret(context.Background(), SecretTypeAPIKey, "app", "api_key", "globex")
	require.NoError(t, err)
	assert.Equal(t, "globex-value", value)
}

func TestGetSecretFallbackOutsideProduction(t *testing.T) {
	t.Setenv("SECRET_APP_API_KEY", "from-env")

	engine := newTestEngine(t, config.EnvDevelopment, NewMemoryStore())

	value, err := engine.GetSecret(context.Background(), SecretTypeAPIKey, "app", "api_key", "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestGetSecretFallbackDisallowedByPolicy(t *testing.T) {
	// Encryption keys never fall back to the environment
	t.Setenv("SECRET_APP_DATA_KEY", "from-env")

	engine := newTestEngine(t, config.EnvDevelopment, NewMemoryStore())

	_, err := engine.GetSecret(context.Background(), SecretTypeEncryptionKey, "app", "data_key", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSecretProductionStoreErrorPropagates(t *testing.T) {
	store := NewMemoryStore()
	store.SetGetErr(&StoreUnavailableError{Store: "memory", Err: errors.New("connection refused")})

	engine := newTestEngine(t, config.EnvProduction, store)

	_, err := engine.GetSecret(context.Background(), SecretTypeAPIKey, "app", "api_key", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestGetSecretNotFound(t *testing.T) {
	engine := newTestEngine(t, config.EnvProduction, NewMemoryStore())

	_, err := engine.GetSecret(context.Background(), SecretTypeAPIKey, "app", "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutSecretValidatesBeforeWrite(t *testing.T) {
	testCases := []struct {
		name       string
		secretType SecretType
		value      string
		wantErr    bool
	}{
		{
			name:       "too short",
			secretType: SecretTypeJWT,
			value:      "short",
			wantErr:    true,
		},
		{
			name:       "long enough token",
			secretType: SecretTypeJWT,
			value:      strings.Repeat("a", 40),
			wantErr:    false,
		},
		{
			name:       "credential missing complexity",
			secretType: SecretTypeDatabaseCredential,
			value:      strings.Repeat("a", 20),
			wantErr:    true,
		},
		{
			name:       "credential with complexity",
			secretType: SecretTypeDatabaseCredential,
			value:      "Aa1!" + strings.Repeat("x", 16),
			wantErr:    false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemoryStore()
			engine := newTestEngine(t, config.EnvDevelopment, store)

			written, err := engine.PutSecret(context.Background(), tc.secretType, "app", "k", tc.value, "")
			if tc.wantErr {
				var validationErr *ValueValidationError
				require.Error(t, err)
				assert.True(t, errors.As(err, &validationErr))
				assert.False(t, written)

				// fail closed: nothing reached the store
				_, getErr := store.Get(context.Background(), "app", "k")
				assert.ErrorIs(t, getErr, ErrNotFound)
				return
			}

			require.NoError(t, err)
			assert.True(t, written)
		})
	}
}

func TestPutSecretRejectsShortValueEvenWithoutStore(t *testing.T) {
	engine := newTestEngine(t, config.EnvDevelopment, nil)

	_, err := engine.PutSecret(context.Background(), SecretTypeJWT, "app", "k", "tiny", "")
	var validationErr *ValueValidationError
	require.Error(t, err)
	assert.True(t, errors.As(err, &validationErr))
}

func TestPutSecretWithoutHardenedStoreIsSoftOutsideProduction(t *testing.T) {
	engine := newTestEngine(t, config.EnvDevelopment, nil)

	written, err := engine.PutSecret(context.Background(), SecretTypeJWT, "app", "k", strings.Repeat("a", 40), "")
	require.NoError(t, err)
	assert.False(t, written)
}

func TestRotateSecretOverwritesWithValidValue(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "app", "db_password", "Old-Value-123!xyz"))

	engine := newTestEngine(t, config.EnvStaging, store)

	written, err := engine.RotateSecret(context.Background(), SecretTypeDatabaseCredential, "app", "db_password", "")
	require.NoError(t, err)
	assert.True(t, written)

	rotated, err := store.Get(context.Background(), "app", "db_password")
	require.NoError(t, err)
	assert.NotEqual(t, "Old-Value-123!xyz", rotated)

	// the rotated value satisfies its own policy
	policy, ok := PolicyFor(SecretTypeDatabaseCredential)
	require.True(t, ok)
	assert.NoError(t, validateValue(SecretTypeDatabaseCredential, policy, rotated))
}

func TestValidateEnvironmentCompliance(t *testing.T) {
	t.Run("healthy production is compliant", func(t *testing.T) {
		engine := newTestEngine(t, config.EnvProduction, NewMemoryStore())

		snap := engine.ValidateEnvironmentCompliance(context.Background())
		assert.True(t, snap.Compliant)
		assert.True(t, snap.HardenedHealthy)
		assert.Empty(t, snap.Issues)
	})

	t.Run("unhealthy production store is non-compliant", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetHealthErr(errors.New("sealed"))
		engine := newTestEngine(t, config.EnvProduction, store)

		snap := engine.ValidateEnvironmentCompliance(context.Background())
		assert.False(t, snap.Compliant)
		assert.False(t, snap.HardenedHealthy)
	})

	t.Run("development without hardened store is compliant", func(t *testing.T) {
		engine := newTestEngine(t, config.EnvDevelopment, nil)

		snap := engine.ValidateEnvironmentCompliance(context.Background())
		assert.True(t, snap.Compliant)
		assert.True(t, snap.FallbackPresent)
	})
}
