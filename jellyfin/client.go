// Package jellyfin implements the protocol client for Jellyfin-compatible media servers.
//
// It covers the surface the playback engine consumes: playback-info resolution,
// session start/progress/stop reports, library search, and media segment lookup.
package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"

	"github.com/jellysan-cli/jellysan/constant"
	"github.com/jellysan-cli/jellysan/network"
)

// Client is an authenticated HTTP client bound to a single media server.
type Client struct {
	baseURL  string
	token    string
	deviceID string
	http     *http.Client
}

// NewClient creates a client for the given server base URL and access token.
func NewClient(baseURL, token, deviceID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		deviceID: deviceID,
		http:     network.Client,
	}
}

// BaseURL returns the server base URL the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// authorization builds the MediaBrowser authorization header value.
func (c *Client) authorization() string {
	return fmt.Sprintf(
		`MediaBrowser Client="%s", Device="%s", DeviceId="%s", Version="%s", Token="%s"`,
		constant.ClientName, runtime.GOOS, c.deviceID, constant.Version, c.token,
	)
}

// newRequest builds a request with the standard headers applied.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes a request and decodes the JSON response into out when non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// post issues a JSON POST and decodes the response into out when non-nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// get issues a GET with query parameters and decodes the response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// AuthenticateByName exchanges a username/password pair for an access token and user id.
func (c *Client) AuthenticateByName(ctx context.Context, username, password string) (token, userID string, err error) {
	var resp struct {
		AccessToken string `json:"AccessToken"`
		User        struct {
			ID string `json:"Id"`
		} `json:"User"`
	}

	err = c.post(ctx, "/Users/AuthenticateByName", map[string]string{
		"Username": username,
		"Pw":       password,
	}, &resp)
	if err != nil {
		return "", "", fmt.Errorf("authenticate: %w", err)
	}
	if resp.AccessToken == "" {
		return "", "", fmt.Errorf("authenticate: server returned no access token")
	}

	c.token = resp.AccessToken
	return resp.AccessToken, resp.User.ID, nil
}
