package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/jxin/knowledgeqa/internal/config"
	"github.com/jxin/knowledgeqa/internal/domain/chatmodel"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/internal/memory"
	"github.com/jxin/knowledgeqa/internal/retrieval"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

const systemPrompt = `You are a knowledgeable question-answering assistant with access to a knowledge base of uploaded documents.

Tool usage principles:
- Call retrieve_knowledge only when the question plausibly concerns the uploaded documents.
- When the tool reports that no relevant content was found, answer confidently from your own knowledge. Never fabricate citations from an empty result.
- For small talk or general questions, reply directly without the tool.
- If you are unsure or have no relevant information, say so honestly.

Keep answers concise and grounded in the retrieved references when they are provided.`

const fallbackReply = "Sorry, I could not produce an answer this time. Please try rephrasing your question."

// Agent drives the conversation of a single session. The model only ever
// requests tool executions; Run executes them and feeds the results back
// until the model settles on a text reply.
type Agent struct {
	mu       sync.Mutex
	provider llm.Provider
	tool     *retrieval.Tool
	memory   memory.Store
	logger   *logger_i.Logger
}

func New(provider llm.Provider, tool *retrieval.Tool, store memory.Store) *Agent {
	return &Agent{
		provider: provider,
		tool:     tool,
		memory:   store,
		logger:   logger_i.NewLogger("agent"),
	}
}

// Run handles one turn. Turns on the same session run one at a time so the
// transcript and memory stay consistent; different sessions do not contend.
func (a *Agent) Run(ctx context.Context, userMessage string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	history, err := a.memory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("loading session history: %w", err)
	}

	transcript := make([]llm.Message, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Role == chatmodel.RoleAssistant {
			role = llm.RoleAssistant
		}
		transcript = append(transcript, llm.Message{Role: role, Content: msg.Content})
	}
	transcript = append(transcript, llm.Message{Role: llm.RoleUser, Content: userMessage})

	tools := []llm.ToolSpec{{
		Name:        retrieval.ToolName,
		Description: retrieval.ToolDescription,
		Params: []llm.ParamSpec{{
			Name:        "query",
			Description: "the question or phrase to look up in the knowledge base",
			Required:    true,
		}},
	}}

	var reply string
	for round := 0; round < config.MaxToolRounds; round++ {
		response, err := a.chatOnce(ctx, transcript, tools)
		if err != nil {
			return "", err
		}

		if len(response.ToolCalls) == 0 {
			reply = response.Content
			break
		}

		transcript = append(transcript, llm.Message{Role: llm.RoleAssistant, ToolCalls: response.ToolCalls})
		for _, call := range response.ToolCalls {
			transcript = append(transcript, llm.Message{
				Role:       llm.RoleUser,
				ToolResult: &llm.ToolResult{Id: call.Id, Name: call.Name, Content: a.execute(ctx, call)},
			})
		}
	}
	if reply == "" {
		a.logger.Warn("model produced no final text, using fallback reply")
		reply = fallbackReply
	}

	a.remember(ctx, chatmodel.Message{Role: chatmodel.RoleUser, Content: userMessage})
	a.remember(ctx, chatmodel.Message{Role: chatmodel.RoleAssistant, Content: reply})
	return reply, nil
}

func (a *Agent) chatOnce(ctx context.Context, transcript []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.LLMCallTimeout)
	defer cancel()

	response, err := a.provider.Chat(callCtx, systemPrompt, transcript, tools)
	if err != nil {
		return llm.Response{}, fmt.Errorf("model call failed: %w", err)
	}
	return response, nil
}

func (a *Agent) execute(ctx context.Context, call llm.ToolCall) map[string]any {
	if call.Name != retrieval.ToolName {
		a.logger.Warn("model requested unknown tool", "tool", call.Name)
		return map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
	}

	query, _ := call.Args["query"].(string)
	result := a.tool.Retrieve(ctx, query)
	return map[string]any{
		"has_context": result.HasContext,
		"context":     result.Context,
		"sources":     result.Sources,
	}
}

// remember appends to session memory. A failed append loses context for
// later turns but must not invalidate the reply already produced.
func (a *Agent) remember(ctx context.Context, msg chatmodel.Message) {
	if err := a.memory.Append(ctx, msg); err != nil {
		a.logger.Error("failed to persist conversation turn", "error", err)
	}
}
