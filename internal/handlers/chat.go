package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      slog.Default(),
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// getLogger extracts logger from context or returns default logger.
func (h *ChatHandler) getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContextOr(ctx, h.logger)
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.getLogger(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Check if streaming is requested
	if r.URL.Query().Get("stream") == "true" {
		h.handleStreamingChat(w, r, ctx)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, service.ChatRequest{
		Message: req.Message,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply: svcResp.Reply,
	})
}

// handleStreamingChat handles streaming chat requests using Server-Sent Events.
// Errors before the first fragment get a normal JSON error response; later
// errors are sent as an SSE error event.
func (h *ChatHandler) handleStreamingChat(w http.ResponseWriter, r *http.Request, ctx context.Context) {
	logger := h.getLogger(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body for streaming", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	startStream := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	err := h.chatService.StreamChat(ctx, service.ChatRequest{Message: req.Message}, func(chunk string) error {
		startStream()
		if err := writeSSEData(w, chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	if err != nil {
		if !started {
			handleServiceError(w, ctx, err, "Failed to stream chat response")
			return
		}
		logger.ErrorContext(ctx, "error streaming chat", "error", err)
		payload, _ := json.Marshal(ErrorResponse{Error: err.Error()})
		_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
		flusher.Flush()
		return
	}

	startStream()
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// writeSSEData writes one SSE event. Each line of chunk becomes its own data
// field so clients rejoin multi-line fragments with "\n".
func writeSSEData(w http.ResponseWriter, chunk string) error {
	var b strings.Builder
	for _, line := range strings.Split(chunk, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := fmt.Fprint(w, b.String())
	return err
}
