package search

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gosearch/internal/llm"
)

// Jina DeepSearch speaks the chat-completions protocol.
const (
	JinaDefaultBaseURL = "https://deepsearch.jina.ai/v1"
	JinaModel          = "jina-deepsearch-v1"
)

// Jina calls the Jina DeepSearch endpoint. DeepSearch runs its own search
// and read loop server-side and answers in a single assistant message, which
// becomes one answer document.
type Jina struct {
	Client llm.Client // nil when no API key is configured
	Model  string

	down atomic.Bool
}

func (j *Jina) Name() string    { return "jina" }
func (j *Jina) Priority() int   { return 3 }
func (j *Jina) Available() bool { return j.Client != nil && !j.down.Load() }

func (j *Jina) Search(ctx context.Context, q Query) ([]Result, error) {
	model := j.Model
	if model == "" {
		model = JinaModel
	}
	resp, err := j.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: q.Text},
		},
		ReasoningEffort: "low",
	})
	if err != nil {
		pe := classifyOpenAI(j.Name(), err)
		if pe.Kind == KindAuth {
			j.down.Store(true)
		}
		return nil, pe
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: j.Name(), Kind: KindParse, Err: errors.New("response has no choices")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, nil
	}
	return []Result{{Title: q.Text, Snippet: content, Source: j.Name()}}, nil
}

// classifyOpenAI maps a go-openai error to the failure taxonomy.
func classifyOpenAI(provider string, err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, Kind: classifyStatus(apiErr.HTTPStatusCode), Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: provider, Kind: classifyStatus(reqErr.HTTPStatusCode), Err: err}
	}
	return &ProviderError{Provider: provider, Kind: classifyTransport(err), Err: err}
}
