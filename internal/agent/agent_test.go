package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jxin/knowledgeqa/internal/domain/chatmodel"
	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/internal/memory"
	"github.com/jxin/knowledgeqa/internal/retrieval"
	"github.com/jxin/knowledgeqa/internal/vectorindex"
)

type mockProvider struct {
	OnChat func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error)
	calls  int
}

func (m *mockProvider) Chat(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
	m.calls++
	return m.OnChat(ctx, system, msgs, tools)
}

type mockIndex struct {
	matches []vectorindex.Match
}

func (m *mockIndex) Store(ctx context.Context, chunks []docmodel.Chunk) (int, error) {
	return 0, nil
}

func (m *mockIndex) Search(ctx context.Context, query string, topK int) ([]vectorindex.Match, error) {
	return m.matches, nil
}

func (m *mockIndex) DeleteByDocument(ctx context.Context, documentId string) error {
	return nil
}

func newAgent(p llm.Provider, matches []vectorindex.Match, store memory.Store) *Agent {
	return New(p, retrieval.NewTool(&mockIndex{matches: matches}, 3), store)
}

func TestRun_DirectReplyWithoutTool(t *testing.T) {
	provider := &mockProvider{
		OnChat: func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
			if len(tools) != 1 || tools[0].Name != retrieval.ToolName {
				t.Errorf("retrieval tool not offered to the model: %v", tools)
			}
			return llm.Response{Content: "Hello there!"}, nil
		},
	}
	store := memory.NewInMemStore(5)

	reply, err := newAgent(provider, nil, store).Run(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Hello there!" {
		t.Errorf("reply got %q", reply)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}

	msgs, _ := store.Messages(context.Background())
	if len(msgs) != 2 {
		t.Fatalf("memory should hold the user+assistant pair, got %d", len(msgs))
	}
	if msgs[0].Role != chatmodel.RoleUser || msgs[0].Content != "hi" {
		t.Errorf("user turn not recorded: %+v", msgs[0])
	}
	if msgs[1].Role != chatmodel.RoleAssistant || msgs[1].Content != "Hello there!" {
		t.Errorf("assistant turn not recorded: %+v", msgs[1])
	}
}

func TestRun_ExecutesRequestedToolAndFeedsResultBack(t *testing.T) {
	provider := &mockProvider{}
	provider.OnChat = func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
		if provider.calls == 1 {
			return llm.Response{ToolCalls: []llm.ToolCall{{
				Id:   "call-1",
				Name: retrieval.ToolName,
				Args: map[string]any{"query": "capital of France"},
			}}}, nil
		}

		// second round must carry the tool request and its result
		last := msgs[len(msgs)-1]
		if last.ToolResult == nil || last.ToolResult.Id != "call-1" {
			t.Errorf("tool result not fed back: %+v", last)
		}
		contextText, _ := last.ToolResult.Content["context"].(string)
		if !strings.Contains(contextText, "Paris") {
			t.Errorf("retrieved context missing: %q", contextText)
		}
		return llm.Response{Content: "The capital of France is Paris."}, nil
	}

	matches := []vectorindex.Match{{Text: "Paris is the capital of France.", Filename: "geo.txt"}}
	reply, err := newAgent(provider, matches, memory.NewInMemStore(5)).Run(context.Background(), "what is the capital of France?")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "The capital of France is Paris." {
		t.Errorf("reply got %q", reply)
	}
	if provider.calls != 2 {
		t.Errorf("provider called %d times, want 2", provider.calls)
	}
}

func TestRun_BoundedToolRounds(t *testing.T) {
	provider := &mockProvider{
		OnChat: func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
			return llm.Response{ToolCalls: []llm.ToolCall{{
				Name: retrieval.ToolName,
				Args: map[string]any{"query": "again"},
			}}}, nil
		},
	}

	reply, err := newAgent(provider, nil, memory.NewInMemStore(5)).Run(context.Background(), "loop forever")
	if err != nil {
		t.Fatal(err)
	}
	if reply != fallbackReply {
		t.Errorf("exhausted rounds should fall back, got %q", reply)
	}
}

func TestRun_UnknownToolReportedToModel(t *testing.T) {
	provider := &mockProvider{}
	provider.OnChat = func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
		if provider.calls == 1 {
			return llm.Response{ToolCalls: []llm.ToolCall{{Id: "x", Name: "delete_everything"}}}, nil
		}
		last := msgs[len(msgs)-1]
		if last.ToolResult == nil {
			t.Fatal("expected a tool result message")
		}
		if _, ok := last.ToolResult.Content["error"]; !ok {
			t.Errorf("unknown tool should produce an error payload: %v", last.ToolResult.Content)
		}
		return llm.Response{Content: "understood"}, nil
	}

	reply, err := newAgent(provider, nil, memory.NewInMemStore(5)).Run(context.Background(), "do something odd")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "understood" {
		t.Errorf("reply got %q", reply)
	}
}

func TestRun_ProviderFailureSurfaces(t *testing.T) {
	provider := &mockProvider{
		OnChat: func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
			return llm.Response{}, errors.New("quota exceeded")
		},
	}
	store := memory.NewInMemStore(5)

	_, err := newAgent(provider, nil, store).Run(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error")
	}

	msgs, _ := store.Messages(context.Background())
	if len(msgs) != 0 {
		t.Errorf("failed turn must not be recorded, got %v", msgs)
	}
}

func TestRun_HistoryIncludedInTranscript(t *testing.T) {
	store := memory.NewInMemStore(5)
	ctx := context.Background()
	store.Append(ctx, chatmodel.Message{Role: chatmodel.RoleUser, Content: "my name is Lin"})
	store.Append(ctx, chatmodel.Message{Role: chatmodel.RoleAssistant, Content: "Nice to meet you, Lin."})

	provider := &mockProvider{
		OnChat: func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
			if len(msgs) != 3 {
				t.Fatalf("transcript got %d messages, want history pair + new turn", len(msgs))
			}
			if msgs[0].Content != "my name is Lin" || msgs[0].Role != llm.RoleUser {
				t.Errorf("history user turn malformed: %+v", msgs[0])
			}
			if msgs[1].Role != llm.RoleAssistant {
				t.Errorf("history assistant turn malformed: %+v", msgs[1])
			}
			return llm.Response{Content: "Your name is Lin."}, nil
		},
	}

	if _, err := newAgent(provider, nil, store).Run(ctx, "what is my name?"); err != nil {
		t.Fatal(err)
	}
}
