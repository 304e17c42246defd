package llm

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
)

// ErrBadResponse is returned when the server answers with an error status or
// with something that is not a complete chat reply.
var ErrBadResponse = errors.New("malformed response")

// Client is the full surface of a chat backend.
type Client interface {
	// Complete sends a non-streaming chat request and returns the whole reply.
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// CompleteStreaming sends a streaming chat request. The caller owns the returned Stream.
	CompleteStreaming(ctx context.Context, req ChatRequest) (Stream, error)
	// ListModels returns the model identifiers the server can serve.
	ListModels(ctx context.Context) ([]string, error)
}

// NewClient creates a client for the named backend ("ollama" or "openai").
func NewClient(backend, baseURL, apiKey string) (Client, error) {
	switch strings.ToLower(backend) {
	case "ollama":
		return NewOllamaClient(baseURL), nil
	case "openai":
		return NewOpenAIClient(baseURL, apiKey), nil
	default:
		return nil, fmt.Errorf("unknown LLM backend %q", backend)
	}
}

// httpClient holds the transport shared by all calls of one backend.
// It carries no per-call state, so one value serves concurrent callers.
type httpClient struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 64,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// post sends payload as JSON and returns the response if the status is 200.
func (c *httpClient) post(ctx context.Context, path string, payload any, accept string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}

	return c.do(req)
}

// getJSON decodes the body of a GET request into out.
func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrBadResponse, err)
	}
	return nil
}

func (c *httpClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: bad status %d: %s", ErrBadResponse, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return resp, nil
}
