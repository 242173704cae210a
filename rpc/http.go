// Package rpc holds the clients of the remote services the light clients
// depend on: beacon and Chainweb nodes over their REST APIs, execution
// nodes over JSON-RPC, and the proof server.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/larskuhtz/zk-light-clients/log"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// maxResponseSize bounds response bodies; a batch of 128 updates is ~3.4 MB.
const maxResponseSize = 64 << 20

// Accept headers.
const (
	mimeJSON = "application/json"
	mimeSSZ  = "application/octet-stream"
)

// APIError is a non-success HTTP response. Code and Message follow the
// beacon API error body when the server sends one.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc: http %d", e.Status)
	}
	return fmt.Sprintf("rpc: http %d: %s", e.Status, e.Message)
}

type restClient struct {
	baseURL    string
	httpClient *http.Client
	log        *log.Logger
}

func newRESTClient(baseURL string, timeout time.Duration, logger *log.Logger) restClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return restClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: logger,
	}
}

// get fetches path and returns the body of a 2xx response.
func (c *restClient) get(ctx context.Context, path string, params url.Values, accept string) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc: create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("rpc: read %s: %w", path, err)
	}
	c.log.Debug("GET", "path", path, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}
	return body, nil
}

func (c *restClient) getJSON(ctx context.Context, path string, params url.Values, result any) error {
	body, err := c.get(ctx, path, params, mimeJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("rpc: decode %s: %w", path, err)
	}
	return nil
}
