// Package httptransport is the default Transport: plain net/http with a
// fixed request timeout. It performs byte-level I/O only; classification and
// normalization happen in the pipeline above it.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hhszzzz/Graduation-Design/pkg/pipeline"
)

const DefaultTimeout = 30 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration

	// Client overrides the underlying http.Client. The configured Timeout is
	// ignored when a client is supplied.
	Client *http.Client
}

type Client struct {
	base *url.URL
	http *http.Client
}

var _ pipeline.Transport = (*Client)(nil)

func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("http transport: base url is required")
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("http transport: parse base url: %w", err)
	}

	httpClient := config.Client
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, http: httpClient}, nil
}

func (c *Client) Send(ctx context.Context, req *pipeline.Request) (*pipeline.RawResponse, error) {
	target := c.resolve(req)

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &pipeline.TransportError{Err: fmt.Errorf("encode request body: %w", err)}
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, &pipeline.TransportError{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &pipeline.TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &pipeline.TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	raw := &pipeline.RawResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   payload,
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &pipeline.TransportError{
			Err:      fmt.Errorf("server responded with status %d", resp.StatusCode),
			Response: raw,
		}
	}

	return raw, nil
}

func (c *Client) resolve(req *pipeline.Request) string {
	target := strings.TrimSuffix(c.base.String(), "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	return target
}
