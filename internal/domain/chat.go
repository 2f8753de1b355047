package domain

import "time"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ActionType names a structured action emitted by the assistant.
type ActionType string

// Assistant actions.
const (
	ActionAddLineItem ActionType = "add_line_item"
	ActionShowSummary ActionType = "show_summary"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AssistantAction is a structured request from the assistant.
// The line item fields are only set for ActionAddLineItem.
type AssistantAction struct {
	Type            ActionType `json:"type"`
	ModelCode       string     `json:"model_code,omitempty"`
	VariantID       string     `json:"variant_id,omitempty"`
	DailyUsage      *float64   `json:"daily_usage,omitempty"`
	DiscountPercent *float64   `json:"discount_percent,omitempty"`
}

// AssistantRequest is the conversation passed to the assistant.
type AssistantRequest struct {
	SystemPrompt string        `json:"system_prompt"`
	Messages     []ChatMessage `json:"messages"`
}

// AssistantResponse is the assistant's text plus any actions.
type AssistantResponse struct {
	Reply   string            `json:"reply"`
	Actions []AssistantAction `json:"actions"`
}

// ActionResult reports how an assistant action was applied.
type ActionResult struct {
	AssistantAction

	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// ChatReply is the result of one chat turn.
type ChatReply struct {
	SessionID string         `json:"session_id"`
	Reply     string         `json:"reply"`
	Actions   []ActionResult `json:"actions"`
	Summary   *QuoteDocument `json:"summary,omitempty"`
	Step      Step           `json:"step"`
}
