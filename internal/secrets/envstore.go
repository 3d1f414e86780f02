package secrets

import (
	"context"
	"os"
	"strings"
)

// LocalFallbackStore reads secrets from process environment variables
// using the SECRET_{PATH}_{KEY} convention. It represents ambient process
// configuration, not a place to persist anything: Put and Delete always
// fail with ErrReadOnly. The engine only wires one of these outside
// Production.
type LocalFallbackStore struct{}

// NewLocalFallbackStore creates an environment-variable fallback store
func NewLocalFallbackStore() *LocalFallbackStore {
	return &LocalFallbackStore{}
}

// Name identifies the store in logs
func (s *LocalFallbackStore) Name() string {
	return "local-fallback"
}

// Get reads SECRET_{PATH}_{KEY} from the environment
func (s *LocalFallbackStore) Get(ctx context.Context, path, key string) (string, error) {
	value, ok := os.LookupEnv(envVarName(path, key))
	if !ok || value == "" {
		return "", ErrNotFound
	}

	return value, nil
}

// Put is not supported; the fallback store is read-only
func (s *LocalFallbackStore) Put(ctx context.Context, path, key, value string) error {
	return ErrReadOnly
}

// Delete is not supported; the fallback store is read-only
func (s *LocalFallbackStore) Delete(ctx context.Context, path, key string) error {
	return ErrReadOnly
}

// List returns the keys available under path in the environment
func (s *LocalFallbackStore) List(ctx context.Context, path string) ([]string, error) {
	prefix := envVarName(path, "")

	var keys []string
	for _, entry := range os.Environ() {
		name, _, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}

		keys = append(keys, strings.ToLower(strings.TrimPrefix(name, prefix)))
	}

	return keys, nil
}

// Health always succeeds; the process environment is always reachable
func (s *LocalFallbackStore) Health(ctx context.Context) error {
	return nil
}

// envVarName maps a path/key pair to its environment variable name.
// "tenants/acme/app", "db_password" -> "SECRET_TENANTS_ACME_APP_DB_PASSWORD".
func envVarName(path, key string) string {
	normalize := func(s string) string {
		s = strings.ToUpper(s)
		s = strings.ReplaceAll(s, "/", "_")
		s = strings.ReplaceAll(s, "-", "_")
		return s
	}

	name := "SECRET_" + normalize(strings.Trim(path, "/")) + "_"
	if key != "" {
		name += normalize(key)
	}

	return name
}
