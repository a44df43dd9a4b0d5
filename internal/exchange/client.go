package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// DefaultScope is the OAuth scope requested for admin API tokens.
const DefaultScope = "https://outlook.office365.com/.default"

// Client is a bearer-authenticated HTTP client for the Exchange admin API.
// Tokens are fetched per request from the credential, which handles its own
// caching and refresh.
type Client struct {
	baseURL string
	cred    azcore.TokenCredential
	scopes  []string
	hc      *http.Client
}

// NewClient creates a client rooted at baseURL using the given credential.
func NewClient(baseURL string, cred azcore.TokenCredential) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cred:    cred,
		scopes:  []string{DefaultScope},
		hc:      http.DefaultClient,
	}
}

// Get issues a GET request. params, when non-nil, is a map[string]string of
// query parameters.
func (c *Client) Get(ctx context.Context, route string, params interface{}) (*http.Response, error) {
	u := c.baseURL + route
	if qp, ok := params.(map[string]string); ok && len(qp) > 0 {
		values := url.Values{}
		for k, v := range qp {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, route string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: c.scopes})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("Accept", "application/json")
	return c.hc.Do(req)
}
