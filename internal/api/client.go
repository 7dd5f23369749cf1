package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Credentials supplies the bearer token and the stable per-process login
// UUID every vendor request must carry. An empty token is permitted and
// means unauthenticated.
type Credentials interface {
	Token() string
	LoginUUID() string
}

// Client is the HTTP capability the transfer engine uses: vendor-header
// JSON calls, raw part uploads, streamed downloads, and a redirect-probe
// variant that never follows Location.
type Client struct {
	base       string
	userAgent  string
	creds      Credentials
	httpClient *http.Client
	noRedirect *http.Client
}

// NewClient creates a client rooted at base (scheme + host, no trailing
// slash). No request timeout is set on the main client because part uploads
// and downloads are long-running streams.
func NewClient(base, userAgent string, creds Credentials) *Client {
	return &Client{
		base:      base,
		userAgent: userAgent,
		creds:     creds,
		httpClient: &http.Client{
			Timeout: 0,
		},
		noRedirect: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Base returns the configured service root.
func (c *Client) Base() string {
	return c.base
}

// addAuthHeaders applies the fixed header set the vendor requires on every
// service call. The values mimic the official Android client.
func (c *Client) addAuthHeaders(req *http.Request, token string) {
	req.Header.Set("authorization", token)
	req.Header.Set("platform", "android")
	req.Header.Set("app-version", "61")
	req.Header.Set("x-app-version", "2.4.0")
	req.Header.Set("x-channel", "1004")
	req.Header.Set("devicetype", "M2101K9C")
	req.Header.Set("devicename", "Xiaomi")
	req.Header.Set("osversion", "Android_7.1.2")
	req.Header.Set("loginuuid", c.creds.LoginUUID())
	req.Header.Set("content-type", "application/json")
	req.Header.Set("user-agent", c.userAgent)
}

// PostJSON sends payload to the service path and decodes the response body
// into out. The current token is captured per call.
func (c *Client) PostJSON(ctx context.Context, path string, payload any, out any) error {
	return c.PostJSONWithToken(ctx, path, c.creds.Token(), payload, out)
}

// PostJSONWithToken is PostJSON with an explicit token, used by the login
// flow where the session token is not yet (or no longer) the one to send.
func (c *Client) PostJSONWithToken(ctx context.Context, path, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrProtocol, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	c.addAuthHeaders(req, token)

	return c.doJSON(req, out)
}

// GetJSON issues a GET with query parameters against a service path and
// decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.GetJSONWithToken(ctx, path, c.creds.Token(), query, out)
}

// GetJSONWithToken is GetJSON with an explicit token.
func (c *Client) GetJSONWithToken(ctx context.Context, path, token string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	c.addAuthHeaders(req, token)

	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrProtocol, err)
	}
	return nil
}

// PutPart streams one part's bytes to a pre-authorized storage destination.
// The destination URL is already signed, so no vendor headers are attached.
func (c *Client) PutPart(ctx context.Context, destination string, body io.Reader, length int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, destination, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.ContentLength = length

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: part upload returned %s", ErrNetwork, resp.Status)
	}
	return nil
}

// Probe issues a GET against an intermediate URL without following
// redirects, so the caller can inspect the Location header itself. The
// caller owns the response body.
func (c *Client) Probe(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("user-agent", c.userAgent)

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

// Fetch issues a plain GET against an already resolved byte-serving URL
// with redirect following enabled. The caller owns the response body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("user-agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

// PostStatus sends payload and reports success by HTTP status alone,
// draining the body. Used by upload_complete where the service returns no
// meaningful JSON.
func (c *Client) PostStatus(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrProtocol, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	c.addAuthHeaders(req, c.creds.Token())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
