package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	pkgerrors "rootie/pkg/errors"
)

// OpenAIProvider talks to any OpenAI-compatible chat completion
// endpoint. The original deployment pointed it at an Ark/Doubao gateway
// via BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// OpenAIOptions configures the provider
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAIProvider creates a provider for the configured endpoint
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  opts.Model,
	}
}

// ModelName returns the configured model identifier
func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// StreamCompletion streams a reply, invoking onChunk per content delta
func (p *OpenAIProvider) StreamCompletion(ctx context.Context, messages []Message, onChunk func(content string) error) (string, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toChatMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return "", pkgerrors.NewExternalError("model provider", err)
	}
	defer stream.Close()

	full := ""
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full, nil
		}
		if err != nil {
			return full, pkgerrors.NewExternalError("model provider", err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if onChunk != nil {
			if err := onChunk(delta); err != nil {
				return full, err
			}
		}
	}
}

// Completion generates a reply without streaming
func (p *OpenAIProvider) Completion(ctx context.Context, messages []Message) (string, error) {
	response, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toChatMessages(messages),
	})
	if err != nil {
		return "", pkgerrors.NewExternalError("model provider", err)
	}
	if len(response.Choices) == 0 {
		return "", pkgerrors.NewExternalError("model provider", errors.New("empty completion"))
	}
	return response.Choices[0].Message.Content, nil
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

var _ Provider = (*OpenAIProvider)(nil)
