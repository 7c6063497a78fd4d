package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/petmily/petmily-go/transport"
)

// Client is the typed REST client for the Petmily backend. All requests go
// through the authorization middleware handed in as the round tripper, so
// bearer injection and the 401 policy apply uniformly to every endpoint.
type Client struct {
	baseURL string
	httpc   *http.Client
	locale  string
	log     zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithLocale selects the message catalogue for annotated errors.
func WithLocale(locale string) ClientOption {
	return func(c *Client) {
		c.locale = locale
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient initializes a Client over the given round tripper (normally a
// *transport.Authorizer).
func NewClient(baseURL string, rt http.RoundTripper, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] base URL is required")
	}
	if rt == nil {
		return nil, errors.New("[NewClient] round tripper is required")
	}

	client := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Transport: rt},
		locale:  transport.DefaultLocale,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// do performs one JSON round trip. Transport-level failures and non-2xx
// responses come back as *transport.APIError so callers never inspect raw
// status codes.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[Client.do] encode %s %s body", method, path)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "[Client.do] build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return transport.WrapNetworkError(c.locale, err)
	}
	defer resp.Body.Close()

	if err := transport.ErrorFromResponse(c.locale, resp); err != nil {
		c.log.Debug().Err(err).Str("path", path).Msg("request failed")
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[Client.do] decode %s %s response", method, path)
	}
	return nil
}
