package llm

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a model's request that the caller execute a tool. The model
// never executes anything itself; the host loop runs the tool and replies
// with a ToolResult message.
type ToolCall struct {
	Id   string
	Name string
	Args map[string]any
}

// ToolResult carries a tool's output back to the model.
type ToolResult struct {
	Id      string
	Name    string
	Content map[string]any
}

// Message is one entry in a conversation transcript. Exactly one of
// Content, ToolCalls or ToolResult is meaningful: plain text for ordinary
// turns, ToolCalls on an assistant message requesting execution, ToolResult
// on a user-side message answering one.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolResult *ToolResult
}

// ParamSpec describes one string parameter of a tool.
type ParamSpec struct {
	Name        string
	Description string
	Required    bool
}

// ToolSpec declares a tool the model may request.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// Response is one model reply: final text, tool-call requests, or both
// empty when the model produced nothing usable.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider abstracts a chat-completion backend with tool calling.
type Provider interface {
	Chat(ctx context.Context, system string, msgs []Message, tools []ToolSpec) (Response, error)
}
