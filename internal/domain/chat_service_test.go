package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/quotekit/internal/domain"
	"github.com/davidbz/quotekit/internal/session/memory"
)

func newChatService(t *testing.T, assistant domain.Assistant, limit int) (*domain.ChatService, *domain.QuoteService) {
	t.Helper()

	catalog := testCatalog(t)
	store := memory.NewStore()
	quotes := domain.NewQuoteService(
		store,
		catalog,
		domain.NewPricingEngine(catalog),
		&fakeSink{},
		nil,
		nil,
		domain.QuoteServiceConfig{SessionTTL: 30 * time.Minute},
	).WithClock(fixedClock())

	chat := domain.NewChatService(quotes, catalog, assistant, store, nil, domain.ChatServiceConfig{
		SessionTTL:   30 * time.Minute,
		HistoryLimit: limit,
	}).WithClock(fixedClock())

	return chat, quotes
}

func TestChatService_AddLineItemAction(t *testing.T) {
	assistant := &fakeAssistant{responses: []*domain.AssistantResponse{{
		Reply: "已为您添加通义千问-Plus",
		Actions: []domain.AssistantAction{
			{Type: domain.ActionAddLineItem, ModelCode: "qwen-plus", VariantID: "qwen-plus-std", DailyUsage: ptr(1000)},
			{Type: domain.ActionAddLineItem, ModelCode: "qwen-plus", VariantID: "made-up"},
		},
	}}}
	chat, quotes := newChatService(t, assistant, 0)
	ctx := context.Background()

	reply, err := chat.Send(ctx, "", "帮我加一个qwen-plus，每天1000千token")
	require.NoError(t, err)
	require.NotEmpty(t, reply.SessionID)
	require.Equal(t, "已为您添加通义千问-Plus", reply.Reply)
	require.Len(t, reply.Actions, 2)
	require.True(t, reply.Actions[0].Applied)
	require.False(t, reply.Actions[1].Applied)
	require.NotEmpty(t, reply.Actions[1].Error)

	w, err := quotes.Get(ctx, reply.SessionID)
	require.NoError(t, err)
	require.Len(t, w.Quote.LineItems, 1)
	require.Equal(t, domain.SourceChat, w.Quote.LineItems[0].Source)
	require.Equal(t, []string{"qwen-plus"}, w.Quote.SelectedModels)

	require.Len(t, assistant.requests, 1)
	require.Contains(t, assistant.requests[0].SystemPrompt, "variant_id=qwen-plus-std")
	require.Contains(t, assistant.requests[0].SystemPrompt, "0.14 元/张")
}

func TestChatService_ShowSummary(t *testing.T) {
	assistant := &fakeAssistant{responses: []*domain.AssistantResponse{
		{Reply: "空的", Actions: []domain.AssistantAction{{Type: domain.ActionShowSummary}}},
		{Reply: "加好了", Actions: []domain.AssistantAction{
			{Type: domain.ActionAddLineItem, VariantID: "wanx-v1-1024", DailyUsage: ptr(500)},
		}},
		{Reply: "汇总如下", Actions: []domain.AssistantAction{{Type: domain.ActionShowSummary}}},
	}}
	chat, _ := newChatService(t, assistant, 0)
	ctx := context.Background()

	reply, err := chat.Send(ctx, "s1", "看看报价")
	require.NoError(t, err)
	require.False(t, reply.Actions[0].Applied)
	require.Contains(t, reply.Actions[0].Error, domain.ErrEmptyQuote.Error())
	require.Nil(t, reply.Summary)

	_, err = chat.Send(ctx, "s1", "加一个万相")
	require.NoError(t, err)

	reply, err = chat.Send(ctx, "s1", "汇总")
	require.NoError(t, err)
	require.NotNil(t, reply.Summary)
	require.Equal(t, "2100.00", reply.Summary.TotalMonthly.StringFixed(2))

	history, err := chat.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 6)
	require.Equal(t, domain.RoleUser, history[0].Role)
	require.Equal(t, domain.RoleAssistant, history[5].Role)
}

func TestChatService_HistoryWindow(t *testing.T) {
	chat, _ := newChatService(t, &fakeAssistant{}, 4)
	ctx := context.Background()

	for i := range 5 {
		_, err := chat.Send(ctx, "s", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	history, err := chat.History(ctx, "s")
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, "msg 3", history[0].Content)

	require.NoError(t, chat.Clear(ctx, "s"))
	history, err = chat.History(ctx, "s")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestChatService_AssistantFailure(t *testing.T) {
	chat, _ := newChatService(t, &fakeAssistant{err: errors.New("upstream 500")}, 0)
	ctx := context.Background()

	_, err := chat.Send(ctx, "s", "hi")
	require.ErrorIs(t, err, domain.ErrAssistantUnavailable)

	history, err := chat.History(ctx, "s")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestChatService_EmptyMessage(t *testing.T) {
	chat, _ := newChatService(t, &fakeAssistant{}, 0)

	_, err := chat.Send(context.Background(), "s", "   ")
	require.ErrorIs(t, err, domain.ErrEmptyMessage)
}
