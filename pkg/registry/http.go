package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPRegistry reads records from the registry's JSON API
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRegistry creates a registry client for baseURL
func NewHTTPRegistry(baseURL string, timeout time.Duration) *HTTPRegistry {
	return NewHTTPRegistryWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewHTTPRegistryWithClient creates a registry client using the given HTTP client
func NewHTTPRegistryWithClient(baseURL string, client *http.Client) *HTTPRegistry {
	return &HTTPRegistry{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Services fetches all service records
func (r *HTTPRegistry) Services(ctx context.Context) ([]ServiceRecord, error) {
	var services []ServiceRecord
	if err := r.get(ctx, "/services", &services); err != nil {
		return nil, err
	}
	return services, nil
}

// Providers fetches identity providers, service providers and their connections
func (r *HTTPRegistry) Providers(ctx context.Context) (*ProviderData, error) {
	data := &ProviderData{}
	if err := r.get(ctx, "/providers", data); err != nil {
		return nil, err
	}
	if data.Connections == nil {
		data.Connections = map[string][]string{}
	}
	return data, nil
}

func (r *HTTPRegistry) get(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode registry response %s: %w", path, err)
	}
	return nil
}
