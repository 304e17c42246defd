package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/service"
	"github.com/amit-batra/playing-with-llama/internal/service/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewChatHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockChatService := mocks.NewMockChatService(ctrl)
	handler := NewChatHandler(mockChatService)

	if handler == nil {
		t.Fatal("NewChatHandler() returned nil")
	}
	if handler.chatService != mockChatService {
		t.Error("NewChatHandler() chatService not set correctly")
	}
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name          string
		method        string
		body          interface{}
		mockSetup     func(*mocks.MockChatService)
		wantStatus    int
		checkResponse func(*httptest.ResponseRecorder) bool
	}{
		{
			name:   "successful POST request",
			method: http.MethodPost,
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), service.ChatRequest{Message: "Hello"}).
					Return(service.ChatResponse{Reply: "Hi there!"}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(w *httptest.ResponseRecorder) bool {
				var resp ChatResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					return false
				}
				return resp.Reply == "Hi there!"
			},
		},
		{
			name:   "method not allowed",
			method: http.MethodGet,
			mockSetup: func(m *mocks.MockChatService) {
				// No calls expected
			},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "invalid JSON body",
			method: http.MethodPost,
			body:   "invalid json",
			mockSetup: func(m *mocks.MockChatService) {
				// No calls expected
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body: ChatRequest{
				Message: "",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), service.ChatRequest{Message: ""}).
					Return(service.ChatResponse{}, &service.ValidationError{
						Field:   "message",
						Message: "cannot be empty",
					})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "service error",
			method: http.MethodPost,
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), service.ChatRequest{Message: "Hello"}).
					Return(service.ChatResponse{}, errors.New("service error"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "ErrNotFound",
			method: http.MethodPost,
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), service.ChatRequest{Message: "Hello"}).
					Return(service.ChatResponse{}, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "ErrExternalService",
			method: http.MethodPost,
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					ProcessChat(gomock.Any(), service.ChatRequest{Message: "Hello"}).
					Return(service.ChatResponse{}, service.ExternalError(errors.New("connection refused"), "failed"))
			},
			wantStatus: http.StatusBadGateway,
			checkResponse: func(w *httptest.ResponseRecorder) bool {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					return false
				}
				return resp.Error == "External service error" && resp.Index == nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)

			handler := NewChatHandler(mockChatService)

			var bodyBytes []byte
			if s, ok := tt.body.(string); ok {
				bodyBytes = []byte(s)
			} else if tt.body != nil {
				bodyBytes, _ = json.Marshal(tt.body)
			}

			req := httptest.NewRequest(tt.method, "/api/chat", bytes.NewBuffer(bodyBytes))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}

			if tt.checkResponse != nil && !tt.checkResponse(w) {
				t.Error("ServeHTTP() response validation failed")
			}
		})
	}
}

func TestChatHandler_handleStreamingChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	streamChunks := func(chunks []string, tail error) func(context.Context, service.ChatRequest, func(string) error) error {
		return func(ctx context.Context, req service.ChatRequest, callback func(chunk string) error) error {
			for _, chunk := range chunks {
				if err := callback(chunk); err != nil {
					return err
				}
			}
			return tail
		}
	}

	tests := []struct {
		name       string
		body       interface{}
		mockSetup  func(*mocks.MockChatService)
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{
			name: "successful streaming",
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), service.ChatRequest{Message: "Hello"}, gomock.Any()).
					DoAndReturn(streamChunks([]string{"Hello", " ", "world"}, nil))
			},
			wantStatus: http.StatusOK,
			wantType:   "text/event-stream",
			wantBody:   "data: Hello\n\ndata:  \n\ndata: world\n\ndata: [DONE]\n\n",
		},
		{
			name: "multi-line fragment",
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(streamChunks([]string{"a\nb"}, nil))
			},
			wantStatus: http.StatusOK,
			wantType:   "text/event-stream",
			wantBody:   "data: a\ndata: b\n\ndata: [DONE]\n\n",
		},
		{
			name: "invalid JSON body",
			body: "invalid json",
			mockSetup: func(m *mocks.MockChatService) {
				// No calls expected for invalid JSON
			},
			wantStatus: http.StatusBadRequest,
			wantType:   "application/json",
		},
		{
			name: "error before first fragment",
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), service.ChatRequest{Message: "Hello"}, gomock.Any()).
					Return(service.ExternalError(errors.New("stream error"), "failed"))
			},
			wantStatus: http.StatusBadGateway,
			wantType:   "application/json",
		},
		{
			name: "error after first fragment",
			body: ChatRequest{
				Message: "Hello",
			},
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					StreamChat(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(streamChunks([]string{"Hel"}, errors.New("stream broke")))
			},
			wantStatus: http.StatusOK, // SSE sends error in stream, not HTTP status
			wantType:   "text/event-stream",
			wantBody:   "data: Hel\n\nevent: error\ndata: {\"error\":\"stream broke\"}\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockChatService := mocks.NewMockChatService(ctrl)
			tt.mockSetup(mockChatService)

			handler := NewChatHandler(mockChatService)

			var bodyBytes []byte
			if s, ok := tt.body.(string); ok {
				bodyBytes = []byte(s)
			} else {
				bodyBytes, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/chat?stream=true", bytes.NewBuffer(bodyBytes))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("handleStreamingChat() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, tt.wantType) {
				t.Errorf("handleStreamingChat() Content-Type = %q, want %q", got, tt.wantType)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("handleStreamingChat() body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestChatHandler_getLogger(t *testing.T) {
	handler := NewChatHandler(nil)

	// Test with context without logger
	ctx := context.Background()
	if logger := handler.getLogger(ctx); logger != handler.logger {
		t.Error("getLogger() should fall back to the handler logger")
	}

	// Test with context with logger
	ctxLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if logger := handler.getLogger(contextutil.WithLogger(ctx, ctxLogger)); logger != ctxLogger {
		t.Error("getLogger() should return logger from context")
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, http.StatusBadRequest, "test error")

	if w.Code != http.StatusBadRequest {
		t.Errorf("writeError() status = %v, want %v", w.Code, http.StatusBadRequest)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("writeError() invalid JSON: %v", err)
	}

	if resp.Error != "test error" {
		t.Errorf("writeError() error = %v, want test error", resp.Error)
	}
}
