// ABOUTME: Zero-shot classification backend over OpenAI chat completions
// ABOUTME: Single attempt, strict JSON reply; failures degrade at the adapter
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend scores text against candidate labels with a constrained
// chat completion. It deliberately makes a single attempt: the adapter's
// degradation path bounds worst-case latency, and a stale topic reading is
// cheaper than a stalled turn.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates the backend with the given API key and model
func NewOpenAIBackend(apiKey, model string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &OpenAIBackend{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

type classifyReply struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify implements Backend
func (b *OpenAIBackend) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	systemPrompt := fmt.Sprintf(
		`You are a topic classifier. Classify the user's message into exactly one of these labels: %s.
Respond with JSON only: {"label": "<label>", "confidence": <0.0-1.0>}.
Use %q when no label clearly applies.`,
		strings.Join(labels, ", "), GeneralLabel)

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("classification request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("classification returned no choices")
	}

	var reply classifyReply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &reply); err != nil {
		return "", 0, fmt.Errorf("parsing classification reply: %w", err)
	}
	return reply.Label, reply.Confidence, nil
}
