package memory

import (
	"context"

	"github.com/jxin/knowledgeqa/internal/domain/chatmodel"
)

// Store holds the recent conversation history of one chat session.
// Implementations keep at most 2*maxTurns messages, evicting the oldest.
type Store interface {
	Append(ctx context.Context, msg chatmodel.Message) error
	Messages(ctx context.Context) ([]chatmodel.Message, error)
	Clear(ctx context.Context) error
}

// Factory builds a fresh Store for a new session id.
type Factory func(sessionId string) Store
