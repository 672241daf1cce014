package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed to call a chat-completions model.
// It mirrors the one CreateChatCompletion method the search adapters use so
// that any OpenAI-compatible backend (Jina DeepSearch included) can be
// swapped in, notably by tests and the provider stub.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient adapts *openai.Client to the Client interface.
type OpenAIClient struct {
	Inner *openai.Client
}

func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return c.Inner.CreateChatCompletion(ctx, request)
}
