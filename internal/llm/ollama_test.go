package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOllamaClient(t *testing.T) {
	client := NewOllamaClient("http://localhost:11434")
	if client == nil {
		t.Fatal("NewOllamaClient() returned nil")
	}
	if client.BaseURL != "http://localhost:11434" {
		t.Errorf("NewOllamaClient() BaseURL = %v, want http://localhost:11434", client.BaseURL)
	}
	if client.client == nil {
		t.Error("NewOllamaClient() client should not be nil")
	}
}

func TestOllamaClient_Complete(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
		wantBadRsp bool
	}{
		{
			name: "successful chat",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/api/chat" {
					t.Errorf("expected /api/chat, got %s", r.URL.Path)
				}

				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if req.Stream {
					t.Error("expected stream=false")
				}
				if req.Model != "llama3.2:3b" {
					t.Errorf("expected model llama3.2:3b, got %s", req.Model)
				}
				if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem || req.Messages[1].Role != RoleUser {
					t.Errorf("unexpected messages: %+v", req.Messages)
				}

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"model":"llama3.2:3b","message":{"role":"assistant","content":"4"},"done":true,"total_duration":1500000}`))
			},
			wantReply: "4",
		},
		{
			name: "server error",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"model 'llama3.2:3b' not found"}`))
			},
			wantErr:    true,
			wantBadRsp: true,
		},
		{
			name: "malformed body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantErr:    true,
			wantBadRsp: true,
		},
		{
			name: "missing message",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"done":true}`))
			},
			wantErr:    true,
			wantBadRsp: true,
		},
		{
			name: "error field",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":"out of memory"}`))
			},
			wantErr:    true,
			wantBadRsp: true,
		},
	}

	prompt := Prompt{Model: "llama3.2:3b", System: "be brief"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewOllamaClient(server.URL)
			resp, err := client.Complete(context.Background(), prompt.Request("What is 2+2?"))

			if tt.wantErr {
				if err == nil {
					t.Fatal("Complete() expected error, got nil")
				}
				if tt.wantBadRsp && !errors.Is(err, ErrBadResponse) {
					t.Errorf("Complete() error = %v, want ErrBadResponse", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if resp.Content != tt.wantReply {
				t.Errorf("Complete() reply = %v, want %v", resp.Content, tt.wantReply)
			}
			if resp.Duration != 1500000 {
				t.Errorf("Complete() duration = %v, want 1.5ms", resp.Duration)
			}
		})
	}
}

func TestOllamaClient_CompleteStreaming(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantChunks []string
		wantErr    bool
		wantOpen   bool
	}{
		{
			name: "successful streaming",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				var req ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if !req.Stream {
					t.Error("expected stream=true")
				}

				w.Header().Set("Content-Type", "application/x-ndjson")
				flusher, _ := w.(http.Flusher)
				lines := []string{
					`{"message":{"role":"assistant","content":"Paris"},"done":false}`,
					`{"message":{"role":"assistant","content":" is"},"done":false}`,
					`{"message":{"role":"assistant","content":" the capital."},"done":false}`,
					`{"message":{"role":"assistant","content":""},"done":true}`,
				}
				for _, line := range lines {
					_, _ = w.Write([]byte(line + "\n"))
					flusher.Flush()
				}
			},
			wantChunks: []string{"Paris", " is", " the capital."},
			wantOpen:   true,
		},
		{
			name: "error mid-stream",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"message":{"content":"Par"},"done":false}` + "\n"))
				_, _ = w.Write([]byte(`{"error":"model crashed"}` + "\n"))
			},
			wantChunks: []string{"Par"},
			wantOpen:   true,
			wantErr:    true,
		},
		{
			name: "connection dropped before done",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"message":{"content":"The capital of"},"done":false}` + "\n"))
			},
			wantChunks: []string{"The capital of"},
			wantOpen:   true,
			wantErr:    true,
		},
		{
			name: "server error",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: true,
		},
	}

	prompt := Prompt{Model: "llama3.2:3b"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewOllamaClient(server.URL)
			stream, err := client.CompleteStreaming(context.Background(), prompt.StreamRequest("capital of France?"))
			if !tt.wantOpen {
				if err == nil {
					t.Fatal("CompleteStreaming() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("CompleteStreaming() unexpected error: %v", err)
			}

			var received []string
			err = Collect(stream, func(chunk string) error {
				received = append(received, chunk)
				return nil
			})

			if tt.wantErr && err == nil {
				t.Error("Collect() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Collect() unexpected error: %v", err)
			}

			if len(received) != len(tt.wantChunks) {
				t.Fatalf("Collect() received %d chunks, want %d", len(received), len(tt.wantChunks))
			}
			for i, chunk := range received {
				if chunk != tt.wantChunks[i] {
					t.Errorf("Collect() chunk[%d] = %v, want %v", i, chunk, tt.wantChunks[i])
				}
			}

			if _, err := stream.Next(); !errors.Is(err, io.EOF) {
				t.Errorf("Next() after exhaustion = %v, want io.EOF", err)
			}
		})
	}
}

func TestOllamaClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("expected /api/tags, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:3b"},{"name":"mistral:latest"}]}`))
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 || models[0] != "llama3.2:3b" || models[1] != "mistral:latest" {
		t.Errorf("ListModels() = %v", models)
	}

	ok, err := IsModelAvailable(context.Background(), client, "mistral")
	if err != nil {
		t.Fatalf("IsModelAvailable() error = %v", err)
	}
	if !ok {
		t.Error("IsModelAvailable(mistral) = false, want true")
	}

	ok, err = IsModelAvailable(context.Background(), client, "phi3")
	if err != nil {
		t.Fatalf("IsModelAvailable() error = %v", err)
	}
	if ok {
		t.Error("IsModelAvailable(phi3) = true, want false")
	}
}
