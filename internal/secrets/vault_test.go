package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVaultTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *RemoteHardenedStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewRemoteHardenedStore(RemoteStoreConfig{
		Addr:  server.URL,
		Token: "test-token",
	})
	require.NoError(t, err)

	return server, store
}

func TestRemoteHardenedStoreGet(t *testing.T) {
	_, store := newVaultTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/tenants/acme/app", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data": map[string]string{"api_key": "vault-value"},
			},
		})
	})

	value, err := store.Get(context.Background(), "tenants/acme/app", "api_key")
	require.NoError(t, err)
	assert.Equal(t, "vault-value", value)
}

func TestRemoteHardenedStoreGetMissingKey(t *testing.T) {
	_, store := newVaultTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data": map[string]string{"other": "x"},
			},
		})
	})

	_, err := store.Get(context.Background(), "app", "api_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoteHardenedStoreNotFound(t *testing.T) {
	_, store := newVaultTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := store.Get(context.Background(), "app", "api_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoteHardenedStoreServerErrorIsUnavailable(t *testing.T) {
	_, store := newVaultTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := store.Get(context.Background(), "app", "api_key")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRemoteHardenedStoreConnectionRefused(t *testing.T) {
	server, store := newVaultTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	err := store.Health(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRemoteHardenedStorePut(t *testing.T) {
	var captured map[string]map[string]string
	_, store := newVaultTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
	})

	require.NoError(t, store.Put(context.Background(), "app", "api_key", "new-value"))
	assert.Equal(t, "new-value", captured["data"]["api_key"])
}

func TestNewRemoteHardenedStoreRequiresAddr(t *testing.T) {
	_, err := NewRemoteHardenedStore(RemoteStoreConfig{})
	assert.Error(t, err)
}
