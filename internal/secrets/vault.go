package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteHardenedStore talks to a Vault-class KV v2 secret service over
// HTTP. It is the mandatory backing store in Production. Every request
// carries a bounded timeout so a slow backend degrades one request
// instead of wedging the process.
type RemoteHardenedStore struct {
	addr    string
	token   string
	mount   string
	client  *http.Client
	timeout time.Duration
}

// RemoteStoreConfig configures the hardened store client
type RemoteStoreConfig struct {
	// Addr is the base URL of the secret service
	Addr string

	// Token authenticates requests
	Token string

	// Mount is the KV mount path, defaults to "secret"
	Mount string

	// RequestTimeout bounds each request, defaults to 5s
	RequestTimeout time.Duration
}

// NewRemoteHardenedStore creates a hardened store client
func NewRemoteHardenedStore(cfg RemoteStoreConfig) (*RemoteHardenedStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("hardened store address must not be empty")
	}

	if _, err := url.Parse(cfg.Addr); err != nil {
		return nil, fmt.Errorf("invalid hardened store address: %w", err)
	}

	mount := cfg.Mount
	if mount == "" {
		mount = "secret"
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &RemoteHardenedStore{
		addr:    strings.TrimRight(cfg.Addr, "/"),
		token:   cfg.Token,
		mount:   mount,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}, nil
}

// Name identifies the store in logs
func (s *RemoteHardenedStore) Name() string {
	return "hardened"
}

// kvData is the KV v2 response envelope
type kvData struct {
	Data struct {
		Data map[string]string `json:"data"`
		Keys []string          `json:"keys"`
	} `json:"data"`
}

// Get retrieves a single key from the secret at path
func (s *RemoteHardenedStore) Get(ctx context.Context, path, key string) (string, error) {
	var out kvData
	if err := s.do(ctx, http.MethodGet, s.dataURL(path), nil, &out); err != nil {
		return "", err
	}

	value, ok := out.Data.Data[key]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Put writes a single key under path. The write replaces the secret at
// that path, which is fine here because engine addresses map one key per
// path leaf.
func (s *RemoteHardenedStore) Put(ctx context.Context, path, key, value string) error {
	payload := map[string]map[string]string{
		"data": {key: value},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding secret payload: %w", err)
	}

	return s.do(ctx, http.MethodPost, s.dataURL(path), bytes.NewReader(body), nil)
}

// Delete removes the secret at path
func (s *RemoteHardenedStore) Delete(ctx context.Context, path, key string) error {
	return s.do(ctx, http.MethodDelete, s.dataURL(path), nil, nil)
}

// List returns the keys under path
func (s *RemoteHardenedStore) List(ctx context.Context, path string) ([]string, error) {
	u := fmt.Sprintf("%s/v1/%s/metadata/%s?list=true", s.addr, s.mount, strings.Trim(path, "/"))

	var out kvData
	if err := s.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}

	return out.Data.Keys, nil
}

// Health checks the secret service health endpoint
func (s *RemoteHardenedStore) Health(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, s.addr+"/v1/sys/health", nil, nil)
}

func (s *RemoteHardenedStore) dataURL(path string) string {
	return fmt.Sprintf("%s/v1/%s/data/%s", s.addr, s.mount, strings.Trim(path, "/"))
}

// do executes one request against the secret service. Connection errors
// and 5xx responses surface as StoreUnavailableError; a 404 is ErrNotFound.
func (s *RemoteHardenedStore) do(ctx context.Context, method, url string, body *bytes.Reader, out *kvData) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = body
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("X-Vault-Token", s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &StoreUnavailableError{Store: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return &StoreUnavailableError{Store: s.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return fmt.Errorf("secret service rejected request: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding secret response: %w", err)
		}
	}

	return nil
}
