package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/resumatch/resumatch/internal/model"
)

// OpenAIAdjudicator calls the OpenAI chat API in JSON mode.
type OpenAIAdjudicator struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIAdjudicator creates a new OpenAI adjudicator.
func NewOpenAIAdjudicator(cfg model.LLMConfig) (*OpenAIAdjudicator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	chatModel := cfg.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 900
	}

	return &OpenAIAdjudicator{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     chatModel,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the provider name.
func (a *OpenAIAdjudicator) Name() string {
	return "openai"
}

// Adjudicate sends the bounded prompt and returns the raw payload. The
// caller owns the timeout; this method only adds the API plumbing.
func (a *OpenAIAdjudicator) Adjudicate(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You adjudicate evidence quality for requirement/claim pairs. Answer with strict JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req),
			},
		},
		MaxTokens:   a.maxTokens,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI adjudication call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty adjudication response")
	}
	return resp.Choices[0].Message.Content, nil
}

// NewAdjudicator creates an adjudicator from configuration. An empty
// provider disables adjudication: the deterministic matrix stands.
func NewAdjudicator(cfg model.LLMConfig) (Adjudicator, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIAdjudicator(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}
