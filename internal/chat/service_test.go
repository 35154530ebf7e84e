package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jxin/knowledgeqa/internal/domain/docmodel"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/internal/memory"
	"github.com/jxin/knowledgeqa/internal/retrieval"
	"github.com/jxin/knowledgeqa/internal/vectorindex"
)

type mockProvider struct {
	OnChat func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error)
}

func (m *mockProvider) Chat(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
	if m.OnChat != nil {
		return m.OnChat(ctx, system, msgs, tools)
	}
	return llm.Response{Content: "ok"}, nil
}

type emptyIndex struct{}

func (emptyIndex) Store(ctx context.Context, chunks []docmodel.Chunk) (int, error) { return 0, nil }
func (emptyIndex) Search(ctx context.Context, query string, topK int) ([]vectorindex.Match, error) {
	return nil, nil
}
func (emptyIndex) DeleteByDocument(ctx context.Context, documentId string) error { return nil }

func newTestService(p llm.Provider) Service {
	return NewService(p, retrieval.NewTool(emptyIndex{}, 3), func(sessionId string) memory.Store {
		return memory.NewInMemStore(5)
	})
}

func TestChat_SessionsKeepSeparateHistories(t *testing.T) {
	svc := newTestService(&mockProvider{})
	ctx := context.Background()

	svc.Chat(ctx, "alpha", "hello from alpha")
	svc.Chat(ctx, "beta", "hello from beta")

	alpha, err := svc.History(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if len(alpha) != 2 {
		t.Fatalf("alpha history got %d messages, want 2", len(alpha))
	}
	if alpha[0].Content != "hello from alpha" {
		t.Errorf("alpha history holds %q", alpha[0].Content)
	}

	beta, err := svc.History(ctx, "beta")
	if err != nil {
		t.Fatal(err)
	}
	if len(beta) != 2 || beta[0].Content != "hello from beta" {
		t.Errorf("beta history wrong: %v", beta)
	}
}

func TestChat_TurnErrorBecomesTextualReply(t *testing.T) {
	svc := newTestService(&mockProvider{
		OnChat: func(ctx context.Context, system string, msgs []llm.Message, tools []llm.ToolSpec) (llm.Response, error) {
			return llm.Response{}, errors.New("backend unavailable")
		},
	})

	reply := svc.Chat(context.Background(), "s1", "hello")
	if !strings.Contains(reply, "error occurred") {
		t.Errorf("expected textual error reply, got %q", reply)
	}
	if !strings.Contains(reply, "backend unavailable") {
		t.Errorf("reply should name the cause, got %q", reply)
	}
}

func TestHistory_UnknownSessionIsEmpty(t *testing.T) {
	svc := newTestService(&mockProvider{})

	msgs, err := svc.History(context.Background(), "never-seen")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("unknown session should have empty history, got %v", msgs)
	}
}

func TestClear_DropsSession(t *testing.T) {
	svc := newTestService(&mockProvider{})
	ctx := context.Background()

	svc.Chat(ctx, "s1", "remember me")
	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	msgs, err := svc.History(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("history should be empty after clear, got %v", msgs)
	}

	// clearing an unknown session is a no-op
	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Errorf("second clear should be a no-op, got %v", err)
	}
}

func TestChat_ConcurrentSameSession(t *testing.T) {
	svc := newTestService(&mockProvider{})
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Chat(ctx, "shared", "ping")
		}()
	}
	wg.Wait()

	msgs, err := svc.History(ctx, "shared")
	if err != nil {
		t.Fatal(err)
	}
	// capacity is 2*5 messages, all turns landed in one session
	if len(msgs) != 10 {
		t.Errorf("shared session history got %d messages, want capped 10", len(msgs))
	}
}
