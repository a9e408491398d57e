package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bft-labs/codeshake/internal/domain"
	"github.com/bft-labs/codeshake/internal/ports"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorBodySize = 4 << 10
)

// RemoteClient implements ports.Remote against a single JSON endpoint.
// Phase 1 is a POST of the greeting, phase 3 a GET with the code in the query.
type RemoteClient struct {
	client   ports.HTTPClient
	endpoint string
	logger   ports.Logger
}

// NewRemoteClient creates a new HTTP remote client for the given endpoint URL.
func NewRemoteClient(client ports.HTTPClient, endpoint string, logger ports.Logger) *RemoteClient {
	return &RemoteClient{
		client:   client,
		endpoint: endpoint,
		logger:   logger,
	}
}

// Greet sends the phase-1 request.
func (c *RemoteClient) Greet(ctx context.Context, greet ports.GreetRequest) (ports.GreetResponse, error) {
	var out ports.GreetResponse

	body, err := json.Marshal(greet)
	if err != nil {
		return out, fmt.Errorf("%w: marshal greeting: %w", domain.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("%w: create request: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	err = c.do(req, &out)
	return out, err
}

// Redeem sends the phase-3 request with the combined code.
func (c *RemoteClient) Redeem(ctx context.Context, code string) (ports.RedeemResponse, error) {
	var out ports.RedeemResponse

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return out, fmt.Errorf("%w: parse endpoint: %w", domain.ErrTransport, err)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return out, fmt.Errorf("%w: create request: %w", domain.ErrTransport, err)
	}

	err = c.do(req, &out)
	return out, err
}

// do sends req and decodes a 2xx JSON body into out.
func (c *RemoteClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send request: %w", domain.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("remote response",
		ports.String("method", req.Method),
		ports.String("url", req.URL.Redacted()),
		ports.Int("status", resp.StatusCode),
	)

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("%w: server returned %d: %s", domain.ErrTransport, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}
	return nil
}
