package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrSessionCreate signals the provider refused or failed to create a hosted
// checkout session. Retryable; the caller keeps the saved draft.
var ErrSessionCreate = errors.New("payment: session creation failed")

// CreateSessionParams is the request shape for the hosted checkout provider.
// The success and cancel URLs are round-tripped verbatim by the provider.
type CreateSessionParams struct {
	SubjectID  string `json:"subjectId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// CheckoutSession is the provider's response: a URL the browser navigates to.
type CheckoutSession struct {
	URL string `json:"url"`
}

// SessionProvider creates hosted checkout sessions.
type SessionProvider interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (CheckoutSession, error)
}

// HTTPProvider talks to the provider's JSON API.
type HTTPProvider struct {
	base string
	http *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		base: baseURL,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *HTTPProvider) CreateSession(ctx context.Context, params CreateSessionParams) (CheckoutSession, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("payment: marshal session params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("payment: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrSessionCreate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CheckoutSession{}, fmt.Errorf("%w: status %d", ErrSessionCreate, resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: decode: %v", ErrSessionCreate, err)
	}
	if session.URL == "" {
		return CheckoutSession{}, fmt.Errorf("%w: empty session url", ErrSessionCreate)
	}
	return session, nil
}
