package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client queries the external carrier registry by one identifier format.
type Client interface {
	ByMCNumber(ctx context.Context, mc string) (CarrierRecord, error)
	ByDOTNumber(ctx context.Context, dot string) (CarrierRecord, error)
}

// HTTPClient talks to the registry's JSON API.
type HTTPClient struct {
	base string
	http *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		base: baseURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) ByMCNumber(ctx context.Context, mc string) (CarrierRecord, error) {
	return c.fetch(ctx, "/carriers/docket/"+url.PathEscape(mc))
}

func (c *HTTPClient) ByDOTNumber(ctx context.Context, dot string) (CarrierRecord, error) {
	return c.fetch(ctx, "/carriers/"+url.PathEscape(dot))
}

func (c *HTTPClient) fetch(ctx context.Context, path string) (CarrierRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return CarrierRecord{}, fmt.Errorf("registry: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return CarrierRecord{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return CarrierRecord{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return CarrierRecord{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var rec CarrierRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return CarrierRecord{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return rec, nil
}

// MockClient serves deterministic records keyed by identifier, with an
// optional latency to mimic a real call. Used in development and tests.
type MockClient struct {
	Latency time.Duration
	ByMC    map[string]CarrierRecord
	ByDOT   map[string]CarrierRecord
}

func (m *MockClient) ByMCNumber(_ context.Context, mc string) (CarrierRecord, error) {
	time.Sleep(m.Latency)
	rec, ok := m.ByMC[mc]
	if !ok {
		return CarrierRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MockClient) ByDOTNumber(_ context.Context, dot string) (CarrierRecord, error) {
	time.Sleep(m.Latency)
	rec, ok := m.ByDOT[dot]
	if !ok {
		return CarrierRecord{}, ErrNotFound
	}
	return rec, nil
}
