package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks github.com/amit-batra/playing-with-llama/internal/service LLMClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService github.com/amit-batra/playing-with-llama/internal/service ChatService

import (
	"context"
	"log/slog"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/llm"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Complete sends a chat request and returns the whole reply.
	Complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	// CompleteStreaming sends a chat request and returns a cursor over the reply fragments.
	CompleteStreaming(ctx context.Context, req llm.ChatRequest) (llm.Stream, error)
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Message string `validate:"required"`
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Reply string
}

// ChatService provides chat functionality.
type ChatService interface {
	// ProcessChat processes a chat request and returns a response.
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// StreamChat processes a chat request and streams the response via callback.
	StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) error
}

// chatService implements ChatService.
type chatService struct {
	llmClient LLMClient
	prompt    llm.Prompt
	logger    *slog.Logger
}

// NewChatService creates a new ChatService that sends every message under prompt.
func NewChatService(llmClient LLMClient, prompt llm.Prompt) ChatService {
	return &chatService{
		llmClient: llmClient,
		prompt:    prompt,
		logger:    slog.Default(),
	}
}

// ProcessChat processes a chat request.
func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContextOr(ctx, s.logger)

	// Business validation
	if req.Message == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return ChatResponse{}, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	resp, err := s.llmClient.Complete(ctx, s.prompt.Request(req.Message))
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return ChatResponse{}, ExternalError(err, "failed to get LLM response")
	}
	if resp == nil {
		logger.ErrorContext(ctx, "LLM returned no response")
		return ChatResponse{}, ExternalError(llm.ErrBadResponse, "failed to get LLM response")
	}

	logger.InfoContext(ctx, "chat request processed successfully",
		"message_length", len(req.Message),
		"reply_length", len(resp.Content),
		"generation_time", resp.Duration,
	)
	return ChatResponse{
		Reply: resp.Content,
	}, nil
}

// StreamChat processes a chat request and streams the response.
// callback receives fragments in arrival order; an error from it closes the stream.
func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, callback func(chunk string) error) error {
	logger := contextutil.LoggerFromContextOr(ctx, s.logger)

	// Business validation
	if req.Message == "" {
		logger.WarnContext(ctx, "empty message in streaming chat request")
		return &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	stream, err := s.llmClient.CompleteStreaming(ctx, s.prompt.StreamRequest(req.Message))
	if err != nil {
		logger.ErrorContext(ctx, "failed to start LLM stream", "error", err)
		return ExternalError(err, "failed to stream LLM response")
	}

	fragments := 0
	var callbackFailed bool
	err = llm.Collect(stream, func(fragment string) error {
		if err := callback(fragment); err != nil {
			callbackFailed = true
			return err
		}
		fragments++
		return nil
	})
	if err != nil {
		if callbackFailed {
			logger.WarnContext(ctx, "stream consumer stopped early", "fragments", fragments, "error", err)
			return WrapError(err, "failed to deliver LLM response")
		}
		logger.ErrorContext(ctx, "failed to stream LLM response", "fragments", fragments, "error", err)
		return ExternalError(err, "failed to stream LLM response")
	}

	logger.InfoContext(ctx, "streaming chat request processed successfully",
		"message_length", len(req.Message),
		"fragments", fragments,
	)
	return nil
}
