package openai

import (
	"context"
	"fmt"

	"github.com/barekit/remedy/pkg/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider implements llm.Provider using the OpenAI chat completions API.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates a new Provider.
func New(opts ...option.RequestOption) *Provider {
	client := openai.NewClient(opts...)
	return &Provider{
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// SetModel sets the model to use.
func (p *Provider) SetModel(model string) {
	p.model = model
}

func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (*llm.Message, error) {
	var req llm.Request
	for _, opt := range opts {
		opt(&req)
	}

	openaiMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			openaiMessages[i] = openai.SystemMessage(msg.Content)
		case llm.RoleUser:
			openaiMessages[i] = openai.UserMessage(msg.Content)
		case llm.RoleAssistant:
			openaiMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			return nil, fmt.Errorf("unknown role: %s", msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: openaiMessages,
		Model:    p.model,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty completion from model %s", p.model)
	}

	return &llm.Message{
		Role:    llm.RoleAssistant,
		Content: completion.Choices[0].Message.Content,
	}, nil
}
