package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidbz/quotekit/internal/observability"
)

const chatKeyPrefix = "chat_session:"

const defaultHistoryLimit = 20

// ChatServiceConfig holds history settings for ChatService.
type ChatServiceConfig struct {
	SessionTTL   time.Duration
	HistoryLimit int
}

// ChatService is the conversational front-end over QuoteService.
type ChatService struct {
	quotes    *QuoteService
	catalog   CatalogIndex
	assistant Assistant
	store     SessionStore
	metrics   *observability.Metrics
	ttl       time.Duration
	limit     int
	now       func() time.Time
}

// NewChatService creates a new chat service (DI constructor).
func NewChatService(
	quotes *QuoteService,
	catalog CatalogIndex,
	assistant Assistant,
	store SessionStore,
	metrics *observability.Metrics,
	cfg ChatServiceConfig,
) *ChatService {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	return &ChatService{
		quotes:    quotes,
		catalog:   catalog,
		assistant: assistant,
		store:     store,
		metrics:   metrics,
		ttl:       cfg.SessionTTL,
		limit:     limit,
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (c *ChatService) WithClock(now func() time.Time) *ChatService {
	c.now = now
	return c
}

// Send runs one chat turn and applies the assistant's actions to the session's quote.
// An empty session id starts a new session.
func (c *ChatService) Send(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx = observability.WithSessionID(ctx, sessionID)
	logger := observability.FromContext(ctx)

	if _, err := c.quotes.GetOrCreate(ctx, sessionID); err != nil {
		return nil, err
	}

	history, err := c.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history = append(history, ChatMessage{Role: RoleUser, Content: message, Timestamp: c.now()})

	prompt, err := c.systemPrompt(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.assistant.Reply(ctx, &AssistantRequest{SystemPrompt: prompt, Messages: history})
	if err != nil {
		c.metrics.ChatTurn(observability.OutcomeFailure)
		logger.Warn("assistant reply failed", observability.Error(err))
		if errors.Is(err, ErrAssistantUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAssistantUnavailable, err)
	}

	reply := &ChatReply{
		SessionID: sessionID,
		Reply:     resp.Reply,
		Actions:   make([]ActionResult, 0, len(resp.Actions)),
		Summary:   nil,
		Step:      "",
	}
	for _, action := range resp.Actions {
		reply.Actions = append(reply.Actions, c.apply(ctx, sessionID, action, reply))
	}

	history = append(history, ChatMessage{Role: RoleAssistant, Content: resp.Reply, Timestamp: c.now()})
	if err = c.saveHistory(ctx, sessionID, history); err != nil {
		return nil, err
	}

	if w, getErr := c.quotes.Get(ctx, sessionID); getErr == nil {
		reply.Step = w.Step
	}

	c.metrics.ChatTurn(observability.OutcomeSuccess)
	logger.Info("chat turn completed",
		observability.Int("actions", len(reply.Actions)),
		observability.Int("history", len(history)))

	return reply, nil
}

// History returns the stored conversation of a session.
func (c *ChatService) History(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	data, err := c.store.Load(ctx, chatKeyPrefix+sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return []ChatMessage{}, nil
	}
	if err != nil {
		return nil, err
	}

	var history []ChatMessage
	if err = json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}

	return history, nil
}

// Clear drops the conversation history. The quote is kept.
func (c *ChatService) Clear(ctx context.Context, sessionID string) error {
	if err := c.store.Delete(ctx, chatKeyPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

func (c *ChatService) apply(ctx context.Context, sessionID string, action AssistantAction, reply *ChatReply) ActionResult {
	result := ActionResult{AssistantAction: action, Applied: false, Error: ""}

	var err error
	switch action.Type {
	case ActionAddLineItem:
		_, err = c.quotes.AddLineItem(ctx, sessionID, AddLineItemInput{
			ModelCode:       action.ModelCode,
			VariantID:       action.VariantID,
			DiscountPercent: action.DiscountPercent,
			DailyUsage:      action.DailyUsage,
			Source:          SourceChat,
		})
	case ActionShowSummary:
		reply.Summary, err = c.quotes.Preview(ctx, sessionID)
	default:
		err = fmt.Errorf("unknown action %q", action.Type)
	}

	if err != nil {
		observability.FromContext(ctx).Info("assistant action rejected",
			observability.String("action", string(action.Type)),
			observability.Error(err))
		result.Error = err.Error()
		return result
	}

	result.Applied = true
	return result
}

func (c *ChatService) saveHistory(ctx context.Context, sessionID string, history []ChatMessage) error {
	if len(history) > c.limit {
		history = history[len(history)-c.limit:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}
	if err = c.store.Save(ctx, chatKeyPrefix+sessionID, data, c.ttl); err != nil {
		return fmt.Errorf("failed to save chat history: %w", err)
	}

	return nil
}

// systemPrompt lists every catalog variant with its price.
func (c *ChatService) systemPrompt(ctx context.Context) (string, error) {
	models, err := c.catalog.Models(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list models: %w", err)
	}

	var b strings.Builder
	b.WriteString("你是一名AI模型报价助手，帮助销售人员为客户生成模型调用报价。\n")
	b.WriteString("当用户确定了模型规格时，调用 add_line_item 添加报价项；当用户要求查看报价汇总时，调用 show_summary。\n")
	b.WriteString("只能使用下列目录中的 model_code 和 variant_id。价格单位为元。\n\n可用模型:\n")

	for _, model := range models {
		variants, vErr := c.catalog.VariantsFor(ctx, model.Code)
		if vErr != nil {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s)\n", model.Code, model.Name)
		for _, v := range variants {
			fmt.Fprintf(&b, "  - variant_id=%s%s: %s\n", v.ID, variantTags(v), describePrice(Resolve(v)))
		}
	}

	return b.String(), nil
}

func variantTags(v Variant) string {
	tags := make([]string, 0, 3)
	if v.Mode != "" {
		tags = append(tags, "模式="+v.Mode)
	}
	if v.TokenTier != "" {
		tags = append(tags, "Token范围="+v.TokenTier)
	}
	if v.Resolution != "" {
		tags = append(tags, "分辨率="+v.Resolution)
	}
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ", ") + "]"
}

func describePrice(p NormalizedPrice) string {
	switch p.Kind {
	case PriceKindToken:
		parts := make([]string, 0, 2)
		if p.Input.Valid {
			parts = append(parts, "输入 "+p.Input.Decimal.String()+" 元/"+p.Unit)
		}
		if p.Output.Valid {
			parts = append(parts, "输出 "+p.Output.Decimal.String()+" 元/"+p.Unit)
		}
		return strings.Join(parts, ", ")
	case PriceKindNonToken:
		return p.NonToken.Decimal.String() + " 元/" + p.Unit
	default:
		return "暂无价格"
	}
}
