package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client implements Provider against the provider's REST API.  It maps
// transport failures and HTTP status codes onto the package's sentinel
// errors so the workflow can branch with errors.Is.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client for the given API base URL and key.  The
// underlying HTTP client uses a bounded timeout so a hung provider
// cannot stall request handling indefinitely.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type createAuthorizationReq struct {
	Amount   int64    `json:"amount"`
	Currency string   `json:"currency"`
	Metadata Metadata `json:"metadata"`
}

// CreateAuthorization asks the provider to mint a new authorization.
func (c *Client) CreateAuthorization(ctx context.Context, amountMinor int64, currency string, meta Metadata) (Authorization, error) {
	body, err := json.Marshal(createAuthorizationReq{
		Amount:   amountMinor,
		Currency: currency,
		Metadata: meta,
	})
	if err != nil {
		return Authorization{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/authorizations", bytes.NewReader(body))
	if err != nil {
		return Authorization{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req)
}

// FetchStatus retrieves the live state of an authorization by id.
func (c *Client) FetchStatus(ctx context.Context, id string) (Authorization, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/authorizations/"+id, nil)
	if err != nil {
		return Authorization{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req)
}

func (c *Client) do(req *http.Request) (Authorization, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Authorization{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Authorization{}, ErrAuthorizationNotFound
	case resp.StatusCode >= 500:
		return Authorization{}, fmt.Errorf("%w: provider answered %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return Authorization{}, fmt.Errorf("%w: provider answered %d", ErrRejected, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Authorization{}, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	var auth Authorization
	if err := json.Unmarshal(data, &auth); err != nil {
		return Authorization{}, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	return auth, nil
}
