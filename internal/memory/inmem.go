package memory

import (
	"context"
	"sync"

	"github.com/jxin/knowledgeqa/internal/domain/chatmodel"
)

// InMemStore is the default session memory, a bounded slice guarded by a
// mutex. Used when no Redis address is configured.
type InMemStore struct {
	mu       sync.Mutex
	messages []chatmodel.Message
	capacity int
}

func NewInMemStore(maxTurns int) *InMemStore {
	return &InMemStore{capacity: 2 * maxTurns}
}

func (s *InMemStore) Append(ctx context.Context, msg chatmodel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	if len(s.messages) > s.capacity {
		overflow := len(s.messages) - s.capacity
		s.messages = append(s.messages[:0], s.messages[overflow:]...)
	}
	return nil
}

func (s *InMemStore) Messages(ctx context.Context) ([]chatmodel.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chatmodel.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *InMemStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	return nil
}
