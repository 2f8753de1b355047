// Package openai implements domain.Assistant on top of any OpenAI-compatible
// chat completions endpoint, using function calling for quote actions.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/observability"
)

// ErrMissingAPIKey is returned by NewAssistant when no key is configured.
var ErrMissingAPIKey = errors.New("assistant API key is required")

// Assistant implements domain.Assistant.
type Assistant struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewAssistant creates a new assistant client.
func NewAssistant(config Config) (*Assistant, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &Assistant{
		client:      openai.NewClient(opts...),
		model:       config.Model,
		temperature: config.Temperature,
	}, nil
}

// Reply sends the conversation and returns the text reply plus tool calls as actions.
func (a *Assistant) Reply(ctx context.Context, req *domain.AssistantRequest) (*domain.AssistantResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling assistant API", observability.String("model", a.model))

	resp, err := a.client.Chat.Completions.New(ctx, a.toSDKParams(req))
	if err != nil {
		logger.Error("assistant API call failed", observability.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrAssistantUnavailable, err)
	}

	logger.Debug("assistant API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return toDomainResponse(ctx, resp), nil
}

func (a *Assistant) toSDKParams(req *domain.AssistantRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(a.model),
		Messages: messages,
		Tools:    tools(),
	}

	if a.temperature > 0 {
		params.Temperature = openai.Float(a.temperature)
	}

	return params
}

//nolint:gochecknoglobals // read-only JSON schema
var addLineItemSchema = openai.FunctionParameters{
	"type": "object",
	"properties": map[string]any{
		"model_code": map[string]any{
			"type":        "string",
			"description": "模型编码，例如 qwen-plus",
		},
		"variant_id": map[string]any{
			"type":        "string",
			"description": "价格规格ID",
		},
		"daily_usage": map[string]any{
			"type":        "number",
			"description": "日估计用量（千Token或次）",
		},
		"discount_percent": map[string]any{
			"type":        "number",
			"description": "折扣百分比，0到100，10表示九折",
		},
	},
	"required": []string{"model_code", "variant_id"},
}

func tools() []openai.ChatCompletionToolParam {
	return []openai.ChatCompletionToolParam{
		{
			Function: openai.FunctionDefinitionParam{
				Name:        string(domain.ActionAddLineItem),
				Description: openai.String("向当前报价单添加一个模型规格报价项"),
				Parameters:  addLineItemSchema,
			},
		},
		{
			Function: openai.FunctionDefinitionParam{
				Name:        string(domain.ActionShowSummary),
				Description: openai.String("生成当前报价单的汇总预览"),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
	}
}

type addLineItemArgs struct {
	ModelCode       string   `json:"model_code"`
	VariantID       string   `json:"variant_id"`
	DailyUsage      *float64 `json:"daily_usage"`
	DiscountPercent *float64 `json:"discount_percent"`
}

func toDomainResponse(ctx context.Context, resp *openai.ChatCompletion) *domain.AssistantResponse {
	out := &domain.AssistantResponse{
		Reply:   "",
		Actions: []domain.AssistantAction{},
	}
	if len(resp.Choices) == 0 {
		return out
	}

	msg := resp.Choices[0].Message
	out.Reply = msg.Content

	for _, call := range msg.ToolCalls {
		action, err := toAction(call.Function.Name, call.Function.Arguments)
		if err != nil {
			observability.FromContext(ctx).Warn("ignoring malformed tool call",
				observability.String("tool", call.Function.Name),
				observability.Error(err))
			continue
		}
		out.Actions = append(out.Actions, action)
	}

	return out
}

func toAction(name, arguments string) (domain.AssistantAction, error) {
	switch domain.ActionType(name) {
	case domain.ActionAddLineItem:
		var args addLineItemArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return domain.AssistantAction{}, fmt.Errorf("failed to decode arguments: %w", err)
		}
		return domain.AssistantAction{
			Type:            domain.ActionAddLineItem,
			ModelCode:       args.ModelCode,
			VariantID:       args.VariantID,
			DailyUsage:      args.DailyUsage,
			DiscountPercent: args.DiscountPercent,
		}, nil
	case domain.ActionShowSummary:
		return domain.AssistantAction{
			Type:            domain.ActionShowSummary,
			ModelCode:       "",
			VariantID:       "",
			DailyUsage:      nil,
			DiscountPercent: nil,
		}, nil
	default:
		return domain.AssistantAction{}, fmt.Errorf("unknown tool %q", name)
	}
}
