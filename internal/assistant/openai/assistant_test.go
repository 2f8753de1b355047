package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/quotekit/internal/assistant/openai"
	"github.com/davidbz/quotekit/internal/domain"
)

const toolCallResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1735603200,
  "model": "qwen-plus",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "已为您添加 qwen-plus。",
      "tool_calls": [
        {"id": "call_1", "type": "function", "function": {"name": "add_line_item", "arguments": "{\"model_code\":\"qwen-plus\",\"variant_id\":\"qwen-plus-std\",\"daily_usage\":1000,\"discount_percent\":10}"}},
        {"id": "call_2", "type": "function", "function": {"name": "show_summary", "arguments": "{}"}},
        {"id": "call_3", "type": "function", "function": {"name": "delete_everything", "arguments": "{}"}},
        {"id": "call_4", "type": "function", "function": {"name": "add_line_item", "arguments": "not json"}}
      ]
    }
  }],
  "usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
}`

func newTestServer(t *testing.T, status int, body string, captured *map[string]any) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if captured != nil {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, captured))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func newAssistant(t *testing.T, baseURL string) *openai.Assistant {
	t.Helper()

	assistant, err := openai.NewAssistant(openai.Config{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "qwen-plus",
		Temperature: 0.3,
		Timeout:     5,
		MaxRetries:  0,
	})
	require.NoError(t, err)

	return assistant
}

func TestNewAssistant_MissingAPIKey(t *testing.T) {
	assistant, err := openai.NewAssistant(openai.Config{
		APIKey:      "",
		BaseURL:     "",
		Model:       "qwen-plus",
		Temperature: 0,
		Timeout:     0,
		MaxRetries:  0,
	})

	require.ErrorIs(t, err, openai.ErrMissingAPIKey)
	require.Nil(t, assistant)
}

func TestAssistant_Reply_MapsToolCalls(t *testing.T) {
	var captured map[string]any
	server := newTestServer(t, http.StatusOK, toolCallResponse, &captured)
	assistant := newAssistant(t, server.URL)

	resp, err := assistant.Reply(context.Background(), &domain.AssistantRequest{
		SystemPrompt: "你是报价助手",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "我要 qwen-plus"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "已为您添加 qwen-plus。", resp.Reply)
	require.Len(t, resp.Actions, 2)

	add := resp.Actions[0]
	require.Equal(t, domain.ActionAddLineItem, add.Type)
	require.Equal(t, "qwen-plus", add.ModelCode)
	require.Equal(t, "qwen-plus-std", add.VariantID)
	require.NotNil(t, add.DailyUsage)
	require.InDelta(t, 1000.0, *add.DailyUsage, 1e-9)
	require.NotNil(t, add.DiscountPercent)
	require.InDelta(t, 10.0, *add.DiscountPercent, 1e-9)

	require.Equal(t, domain.ActionShowSummary, resp.Actions[1].Type)

	require.Equal(t, "qwen-plus", captured["model"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first, ok := messages[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "system", first["role"])

	tools, ok := captured["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 2)
}

func TestAssistant_Reply_PlainText(t *testing.T) {
	body := `{"id":"c2","object":"chat.completion","created":1,"model":"qwen-plus",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"请问每日用量是多少？"}}],
"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`
	server := newTestServer(t, http.StatusOK, body, nil)
	assistant := newAssistant(t, server.URL)

	resp, err := assistant.Reply(context.Background(), &domain.AssistantRequest{
		SystemPrompt: "",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "你好"},
			{Role: domain.RoleAssistant, Content: "您好"},
			{Role: domain.RoleUser, Content: "报价"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "请问每日用量是多少？", resp.Reply)
	require.Empty(t, resp.Actions)
}

func TestAssistant_Reply_APIError(t *testing.T) {
	server := newTestServer(t, http.StatusBadRequest, `{"error":{"message":"bad request","type":"invalid_request_error"}}`, nil)
	assistant := newAssistant(t, server.URL)

	resp, err := assistant.Reply(context.Background(), &domain.AssistantRequest{
		SystemPrompt: "",
		Messages:     []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}},
	})

	require.ErrorIs(t, err, domain.ErrAssistantUnavailable)
	require.Nil(t, resp)
}

func TestAssistant_Reply_NilRequest(t *testing.T) {
	assistant := newAssistant(t, "http://127.0.0.1:1")

	_, err := assistant.Reply(context.Background(), nil)
	require.Error(t, err)
}

func TestUnavailable_Reply(t *testing.T) {
	_, err := openai.Unavailable{}.Reply(context.Background(), &domain.AssistantRequest{
		SystemPrompt: "",
		Messages:     nil,
	})
	require.ErrorIs(t, err, domain.ErrAssistantNotConfigured)
	require.ErrorIs(t, err, domain.ErrAssistantUnavailable)
}
