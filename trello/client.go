// Package trello is a thin client for the Trello REST API, covering
// exactly the endpoints board grooming needs. Authentication is a
// static key+token pair appended as query parameters to every request.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production Trello API root.
const DefaultBaseURL = "https://api.trello.com/1"

const requestTimeout = 60 * time.Second

// Client issues authenticated requests against the Trello API. Write
// calls tolerate empty or non-JSON response bodies: those are soft
// failures, logged and abandoned, never retried.
type Client struct {
	BaseURL string

	key    string
	token  string
	http   *http.Client
	log    *slog.Logger
	numReq int
}

// NewClient returns a client authenticated with the given key+token
// pair. A nil logger falls back to slog.Default().
func NewClient(key, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: DefaultBaseURL,
		key:     key,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
		log:     logger,
	}
}

// NumRequests returns how many requests the client has sent.
func (c *Client) NumRequests() int {
	return c.numReq
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: decoding response: %w", path, err)
	}
	return nil
}

// Post issues a create request with the given parameters. When out is
// non-nil the response is decoded into it and a malformed body is an
// error (the caller needs the created entity); otherwise a malformed or
// empty body is only logged.
func (c *Client) Post(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.do(ctx, http.MethodPost, appendParams(path, params))
	if err != nil {
		return err
	}
	if out == nil {
		c.softDecode("POST", path, body, nil)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("POST %s: decoding response: %w", path, err)
	}
	return nil
}

// Put issues an update request. The response body is ignored beyond a
// soft JSON check.
func (c *Client) Put(ctx context.Context, path string) error {
	body, err := c.do(ctx, http.MethodPut, path)
	if err != nil {
		return err
	}
	c.softDecode("PUT", path, body, nil)
	return nil
}

// Delete issues a delete request. The response body is ignored beyond a
// soft JSON check.
func (c *Client) Delete(ctx context.Context, path string) error {
	body, err := c.do(ctx, http.MethodDelete, path)
	if err != nil {
		return err
	}
	c.softDecode("DELETE", path, body, nil)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.authURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")

	c.numReq++
	c.log.Debug("trello request", "n", c.numReq, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// softDecode logs and swallows malformed bodies on write calls.
func (c *Client) softDecode(method, path string, body []byte, out any) {
	if out == nil {
		var discard any
		out = &discard
	}
	if len(body) == 0 {
		c.log.Warn("empty response body", "method", method, "path", path)
		return
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.log.Warn("non-JSON response body", "method", method, "path", path, "error", err)
	}
}

// authURL appends the key/token credentials to a request path.
func (c *Client) authURL(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s%skey=%s&token=%s", c.BaseURL, path, sep, url.QueryEscape(c.key), url.QueryEscape(c.token))
}

// appendParams merges params into the query string of path.
func appendParams(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}
