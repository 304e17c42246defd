package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// OpenAIClient talks to an OpenAI-compatible server such as llama.cpp's
// through /v1/chat/completions.
type OpenAIClient struct {
	httpClient
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		httpClient: httpClient{
			BaseURL: baseURL,
			APIKey:  apiKey,
			client:  newHTTPClient(),
		},
	}
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// CompletionResponse represents the response from the chat completions API.
type CompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Complete sends a chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false

	resp, err := c.post(ctx, "/v1/chat/completions", req, "")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var chatResp CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrBadResponse, err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrBadResponse)
	}

	return &ChatResponse{
		Model:   chatResp.Model,
		Content: chatResp.Choices[0].Message.Content,
	}, nil
}

// CompleteStreaming sends a streaming chat completion request.
// The server answers with Server-Sent Events terminated by "data: [DONE]".
func (c *OpenAIClient) CompleteStreaming(ctx context.Context, req ChatRequest) (Stream, error) {
	req.Stream = true

	resp, err := c.post(ctx, "/v1/chat/completions", req, "text/event-stream")
	if err != nil {
		return nil, err
	}

	return newLineStream(resp.Body, decodeSSELine), nil
}

var (
	dataPrefix = []byte("data: ")
	doneMarker = []byte("[DONE]")
)

func decodeSSELine(line []byte) (string, bool, bool, error) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return "", false, true, nil
	}

	data := bytes.TrimPrefix(line, dataPrefix)
	if bytes.Equal(data, doneMarker) {
		return "", true, true, nil
	}

	var chunk completionChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		// Skip malformed JSON chunks
		return "", false, true, nil
	}
	if len(chunk.Choices) == 0 {
		return "", false, true, nil
	}

	choice := chunk.Choices[0]
	return choice.Delta.Content, choice.FinishReason != "", false, nil
}

// ListModels returns the identifiers reported by /v1/models.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	var models modelsResponse
	if err := c.getJSON(ctx, "/v1/models", &models); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
