// Package inference talks to the self-hosted model servers behind the NER and
// cross-encoder oracles (Hugging Face inference toolkit and TEI style JSON APIs).
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// DefaultTimeout bounds a single oracle HTTP call when none is configured.
const DefaultTimeout = 5 * time.Second

// maxErrorBody caps how much of a failed response is kept in the error message.
const maxErrorBody = 512

// httpClient posts JSON to one model endpoint and records oracle metrics.
type httpClient struct {
	url    string
	token  string
	oracle string
	client *http.Client
}

func newHTTPClient(url, token, oracle string, timeout time.Duration) (*httpClient, error) {
	if url == "" {
		return nil, fmt.Errorf("%s endpoint url is required", oracle)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &httpClient{
		url:    strings.TrimRight(url, "/"),
		token:  token,
		oracle: oracle,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// postJSON sends body to path and decodes the JSON response into out.
func (c *httpClient) postJSON(ctx context.Context, path string, body, out any) error {
	start := time.Now()
	err := c.do(ctx, path, body, out)
	metrics.OracleRequestDuration.WithLabelValues(c.oracle).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.OracleRequestsTotal.WithLabelValues(c.oracle, status).Inc()
	return err
}

func (c *httpClient) do(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return fmt.Errorf("%w: %w", ctxErr, err)
		}
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
