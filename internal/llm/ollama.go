package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OllamaClient talks to an Ollama server through /api/chat.
type OllamaClient struct {
	httpClient
}

// NewOllamaClient creates a new Ollama client. baseURL is usually http://localhost:11434.
func NewOllamaClient(baseURL string) *OllamaClient {
	return &OllamaClient{
		httpClient: httpClient{
			BaseURL: baseURL,
			client:  newHTTPClient(),
		},
	}
}

// ollamaChatResponse is one object of the /api/chat reply.
// Non-streaming calls get a single object; streaming calls get one per line.
type ollamaChatResponse struct {
	Model         string  `json:"model"`
	Message       Message `json:"message"`
	Done          bool    `json:"done"`
	TotalDuration int64   `json:"total_duration"`
	Error         string  `json:"error"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Complete sends a non-streaming chat request.
func (c *OllamaClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false

	resp, err := c.post(ctx, "/api/chat", req, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrBadResponse, err)
	}
	if chatResp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, chatResp.Error)
	}
	if chatResp.Message.Role == "" && chatResp.Message.Content == "" {
		return nil, fmt.Errorf("%w: no message returned", ErrBadResponse)
	}

	return &ChatResponse{
		Model:    chatResp.Model,
		Content:  chatResp.Message.Content,
		Duration: time.Duration(chatResp.TotalDuration),
	}, nil
}

// CompleteStreaming sends a streaming chat request. Ollama answers with NDJSON.
func (c *OllamaClient) CompleteStreaming(ctx context.Context, req ChatRequest) (Stream, error) {
	req.Stream = true

	resp, err := c.post(ctx, "/api/chat", req, "application/x-ndjson")
	if err != nil {
		return nil, err
	}

	return newLineStream(resp.Body, decodeOllamaLine), nil
}

func decodeOllamaLine(line []byte) (string, bool, bool, error) {
	var chunk ollamaChatResponse
	if err := json.Unmarshal(line, &chunk); err != nil {
		return "", false, false, fmt.Errorf("%w: failed to decode stream chunk: %v", ErrBadResponse, err)
	}
	if chunk.Error != "" {
		return "", false, false, fmt.Errorf("%w: %s", ErrBadResponse, chunk.Error)
	}
	return chunk.Message.Content, chunk.Done, false, nil
}

// ListModels returns the names of locally available models (/api/tags).
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	var tags ollamaTagsResponse
	if err := c.getJSON(ctx, "/api/tags", &tags); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		names = append(names, name)
	}
	return names, nil
}
