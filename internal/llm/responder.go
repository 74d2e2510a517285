// ABOUTME: Language-model client for assistant replies
// ABOUTME: Maps assembled payloads to chat completions with retry and backoff
package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pensive-labs/converse/internal/models"
)

// DefaultChatModel is the default model for chat completions
const DefaultChatModel = "gpt-4o-mini"

// Responder produces an assistant reply for an assembled context payload.
// The concrete backend is injected so tests can run without a network.
type Responder interface {
	Respond(ctx context.Context, payload *models.Payload) (string, error)
}

// ClientConfig holds configuration for the OpenAI responder
type ClientConfig struct {
	APIKey     string
	ChatModel  string
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIResponder calls OpenAI chat completions with retry
type OpenAIResponder struct {
	client     *openai.Client
	chatModel  string
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIResponder creates a responder with the given configuration
func NewOpenAIResponder(config *ClientConfig) (*OpenAIResponder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	model := config.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAIResponder{
		client:     openai.NewClient(config.APIKey),
		chatModel:  model,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}, nil
}

// Respond sends the payload as ordered chat messages and returns the reply
func (r *OpenAIResponder) Respond(ctx context.Context, payload *models.Payload) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(payload.Blocks))
	for _, block := range payload.Blocks {
		role := openai.ChatMessageRoleSystem
		if block.Role == models.BlockUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: block.Text,
		})
	}

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoffDelay(r.retryDelay, attempt)):
			}
		}

		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    r.chatModel,
			Messages: messages,
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("chat completion returned no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("chat completion failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

// StaticResponder returns a fixed reply; used offline and in tests
type StaticResponder struct {
	Reply string
}

// Respond implements Responder
func (r *StaticResponder) Respond(ctx context.Context, payload *models.Payload) (string, error) {
	if r.Reply != "" {
		return r.Reply, nil
	}
	return "I heard you.", nil
}
