package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jxin/knowledgeqa/internal/domain/chatmodel"
)

func fillStore(t *testing.T, s Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		role := chatmodel.RoleUser
		if i%2 == 1 {
			role = chatmodel.RoleAssistant
		}
		msg := chatmodel.Message{Role: role, Content: fmt.Sprintf("message %d", i)}
		if err := s.Append(ctx, msg); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
}

func TestInMemStore_EvictsOldest(t *testing.T) {
	s := NewInMemStore(2) // capacity 4 messages
	fillStore(t, s, 6)

	msgs, err := s.Messages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Content != "message 2" {
		t.Errorf("oldest surviving message got %q, want message 2", msgs[0].Content)
	}
	if msgs[3].Content != "message 5" {
		t.Errorf("newest message got %q, want message 5", msgs[3].Content)
	}
}

func TestInMemStore_Clear(t *testing.T) {
	s := NewInMemStore(5)
	fillStore(t, s, 3)

	if err := s.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	msgs, err := s.Messages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("store not empty after clear: %v", msgs)
	}
}

func TestRedisStore_TrimsToCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := NewRedisStore(client, "session-1", 2) // capacity 4 messages
	fillStore(t, s, 7)

	msgs, err := s.Messages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Content != "message 3" {
		t.Errorf("oldest surviving message got %q, want message 3", msgs[0].Content)
	}
	if msgs[3].Content != "message 6" {
		t.Errorf("newest message got %q, want message 6", msgs[3].Content)
	}
	if msgs[3].Role != chatmodel.RoleUser {
		t.Errorf("role not round-tripped, got %q", msgs[3].Role)
	}
}

func TestRedisStore_SessionsIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	a := NewRedisStore(client, "session-a", 5)
	b := NewRedisStore(client, "session-b", 5)

	if err := a.Append(ctx, chatmodel.Message{Role: chatmodel.RoleUser, Content: "hello from a"}); err != nil {
		t.Fatal(err)
	}

	msgs, err := b.Messages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("session b should be empty, got %v", msgs)
	}
}

func TestRedisStore_Clear(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	s := NewRedisStore(client, "session-1", 5)
	fillStore(t, s, 2)

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	msgs, err := s.Messages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("store not empty after clear: %v", msgs)
	}
}
