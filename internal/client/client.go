// internal/client/client.go
//
// HTTP client for the Pursuit API, used by the companion guard process.
//
// Context
// -------
// The guard needs one sharp distinction the server never has to make:
// an *explicit rejection* (the server answered, and said no) versus a
// *transport failure* (the server could not be reached at all).  The
// session guard clears the stored secret on the former and degrades
// gracefully on the latter, so the two must never be conflated.
//
// Any non-2xx answer counts as rejection; only a failure to complete
// the round trip is transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pursuithq/pursuit/internal/instance"
)

// ErrRejected is returned when the server answered with a non-2xx status.
var ErrRejected = errors.New("request rejected by server")

// TransportError wraps a failure to complete the HTTP round trip.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Client talks to one Pursuit deployment.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the given base URL (scheme + host, no
// trailing slash required).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type instanceEnvelope struct {
	Instance *instance.Instance `json:"instance"`
}

// Validate checks the secret against the deployment.  Returns the public
// instance projection, ErrRejected, or a *TransportError.
func (c *Client) Validate(ctx context.Context, secret string) (*instance.Instance, error) {
	var env instanceEnvelope
	if err := c.post(ctx, "/api/instance/validate",
		map[string]string{"secret": secret}, &env); err != nil {
		return nil, err
	}
	return env.Instance, nil
}

// Register creates (or replaces) the instance.
func (c *Client) Register(ctx context.Context, name, email, secret string) (*instance.Instance, error) {
	var env instanceEnvelope
	if err := c.post(ctx, "/api/instance/register",
		map[string]string{"name": name, "email": email, "secret": secret}, &env); err != nil {
		return nil, err
	}
	return env.Instance, nil
}

// Update rewrites the instance's name and email.
func (c *Client) Update(ctx context.Context, name, email string) (*instance.Instance, error) {
	var env instanceEnvelope
	if err := c.post(ctx, "/api/instance/update",
		map[string]string{"name": name, "email": email}, &env); err != nil {
		return nil, err
	}
	return env.Instance, nil
}

// Delete destroys the instance and everything it owns.
func (c *Client) Delete(ctx context.Context, secret string) error {
	var out map[string]any
	return c.post(ctx, "/api/instance/delete",
		map[string]string{"secret": secret}, &out)
}

// post performs one JSON round trip.  The error split is the whole point:
// network failures become *TransportError, non-2xx statuses ErrRejected.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, ErrRejected)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
