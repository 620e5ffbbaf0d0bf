package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/quorum/internal/models"
)

// apiGateway adapts an eino chat model to the Gateway contract.
type apiGateway struct {
	id        models.ModelID
	chatModel model.BaseChatModel
}

func (g *apiGateway) Query(ctx context.Context, prompt string, opts models.QueryOptions) *models.QueryResult {
	msgs := []*schema.Message{schema.UserMessage(prompt)}

	var callOpts []model.Option
	if opts.Temperature > 0 {
		callOpts = append(callOpts, model.WithTemperature(float32(opts.Temperature)))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(opts.MaxTokens))
	}

	msg, err := g.chatModel.Generate(ctx, msgs, callOpts...)
	if err != nil {
		return errorResult(fmt.Errorf("%s: %w", g.id, err))
	}
	if msg == nil {
		return &models.QueryResult{ErrorMessage: g.id.String() + ": empty response"}
	}

	result := &models.QueryResult{Text: msg.Content}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		u := msg.ResponseMeta.Usage
		result.Usage = models.TokenUsage{
			Prompt:     u.PromptTokens,
			Completion: u.CompletionTokens,
			Total:      u.TotalTokens,
		}
	}
	return result
}

// newAPIGateway builds the eino chat model for an API provider. DeepSeek
// gets its dedicated binding; every other provider goes through the
// OpenAI-compatible binding with a per-provider base URL.
func newAPIGateway(ctx context.Context, id models.ModelID, s Settings) (Gateway, error) {
	apiKey := s.APIKeys[id.Provider]
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key not configured", id.Provider)
	}

	maxTokens := s.DefaultMaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	if id.Provider == "deepseek" {
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    apiKey,
			Model:     id.Model,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek model: %w", err)
		}
		return &apiGateway{id: id, chatModel: cm}, nil
	}

	cfg := &openai.ChatModelConfig{
		APIKey:    apiKey,
		Model:     id.Model,
		MaxTokens: &maxTokens,
	}
	if baseURL := s.BaseURLs[id.Provider]; baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cm, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", id.Provider, err)
	}
	return &apiGateway{id: id, chatModel: cm}, nil
}
