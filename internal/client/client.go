// Package client implements the checkout collaborator ports over HTTP,
// following the collaborator services' JSON contracts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns the shared HTTP client for collaborator calls, with
// outgoing requests traced. Deadlines come from the caller's context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// base carries what every collaborator client needs: a service name for
// error messages, the service base URL, and the HTTP client.
type base struct {
	name    string
	baseURL string
	http    *http.Client
}

func newBase(name, baseURL string, hc *http.Client) base {
	if hc == nil {
		hc = NewHTTPClient()
	}
	return base{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func (c *base) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", c.name)
	}
	return c.do(req, out)
}

func (c *base) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "%s: encode request", c.name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "%s: build request", c.name)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *base) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", c.name)
	}
	return c.do(req, nil)
}

// do executes the request and decodes a JSON body into out when non-nil.
// Any non-2xx status becomes an error carrying the service name, status and
// a truncated response body.
func (c *base) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: call %s", c.name, req.URL.Path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Service: c.name,
			Status:  resp.StatusCode,
			Body:    readBody(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s: decode response", c.name)
	}
	return nil
}

const maxErrorBody = 512

func readBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// StatusError is a non-2xx response from a collaborator.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Status, e.Body)
}
