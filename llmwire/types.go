package llmwire

import (
	"strconv"
	"strings"
)

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation turn in provider wire shape.
//
// Two invariants hold throughout the engine: a tool message always carries
// the ToolCallID of the assistant tool call it answers, and an assistant
// message with tool calls carries no final answer text for that turn.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a model-initiated tool invocation. Arguments is the raw
// argument text exactly as emitted by the provider; it is parsed only
// immediately before dispatch.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message with text content.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolResultMessage creates a tool result Message answering toolCallID.
func ToolResultMessage(toolCallID, toolName, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		Name:       toolName,
	}
}

// ToolDefinition is the serializable description of a tool sent to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolChoice controls whether and how the model uses tools.
type ToolChoice struct {
	Mode string `json:"mode"` // "auto", "none", "required"
}

// Usage tracks token consumption for one model call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// FinishReason describes why generation stopped.
type FinishReason struct {
	Reason string `json:"reason"` // "stop", "length", "tool_calls", "error", "other"
	Raw    string `json:"raw,omitempty"`
}

// Request is the input to a streaming completion call.
type Request struct {
	Model           string           `json:"model"`
	Messages        []Message        `json:"messages"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	ToolChoice      *ToolChoice      `json:"tool_choice,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	TopP            *float64         `json:"top_p,omitempty"`
	MaxTokens       *int             `json:"max_tokens,omitempty"`
	ReasoningEffort string           `json:"reasoning_effort,omitempty"`
	Provider        string           `json:"provider,omitempty"`
	ProviderOptions map[string]any   `json:"provider_options,omitempty"`
}

// StreamEventType identifies the kind of stream event.
type StreamEventType string

const (
	StreamStart    StreamEventType = "stream_start"
	TextDelta      StreamEventType = "text_delta"
	ReasoningDelta StreamEventType = "reasoning_delta"
	ToolCallDelta  StreamEventType = "tool_call_delta"
	StreamFinish   StreamEventType = "finish"
	StreamError    StreamEventType = "error"
)

// ToolCallFragment is one piece of a tool call emitted mid-stream. Providers
// may split a call's arguments across many fragments; all fragments of one
// call share an ID (or, when the provider omits IDs, an Index). Name may
// arrive on any fragment, typically the first or last.
type ToolCallFragment struct {
	Index          int    `json:"index"`
	ID             string `json:"id,omitempty"`
	Name           string `json:"name,omitempty"`
	ArgumentsDelta string `json:"arguments_delta,omitempty"`
}

// Key returns the identifier under which fragments of the same call are
// accumulated.
func (f ToolCallFragment) Key() string {
	if f.ID != "" {
		return f.ID
	}
	return "idx_" + strconv.Itoa(f.Index)
}

// StreamEvent is a single event from a streaming response.
type StreamEvent struct {
	Type         StreamEventType   `json:"type"`
	Delta        string            `json:"delta,omitempty"` // text or reasoning delta
	ToolCall     *ToolCallFragment `json:"tool_call,omitempty"`
	FinishReason *FinishReason     `json:"finish_reason,omitempty"`
	Usage        *Usage            `json:"usage,omitempty"`
	Err          error             `json:"-"`
}

// TextContent concatenates the text content of a message slice, one line per
// message. Debug helper.
func TextContent(messages []Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.Content != "" {
			sb.WriteString(string(m.Role))
			sb.WriteString(": ")
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
