package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jxin/knowledgeqa/internal/agent"
	"github.com/jxin/knowledgeqa/internal/domain/chatmodel"
	"github.com/jxin/knowledgeqa/internal/llm"
	"github.com/jxin/knowledgeqa/internal/memory"
	"github.com/jxin/knowledgeqa/internal/metrics"
	"github.com/jxin/knowledgeqa/internal/retrieval"
	"github.com/jxin/knowledgeqa/pkg/logger_i"
)

type Service interface {
	Chat(ctx context.Context, sessionId string, message string) string
	History(ctx context.Context, sessionId string) ([]chatmodel.Message, error)
	Clear(ctx context.Context, sessionId string) error
}

type session struct {
	agent *agent.Agent
	store memory.Store
}

// service owns the session registry. Sessions are created on first use and
// live until their history is cleared.
type service struct {
	mu        sync.Mutex
	sessions  map[string]*session
	provider  llm.Provider
	tool      *retrieval.Tool
	newMemory memory.Factory
	logger    *logger_i.Logger
}

func NewService(provider llm.Provider, tool *retrieval.Tool, newMemory memory.Factory) Service {
	return &service{
		sessions:  make(map[string]*session),
		provider:  provider,
		tool:      tool,
		newMemory: newMemory,
		logger:    logger_i.NewLogger("chatService"),
	}
}

// Chat never fails from the caller's perspective. Turn-level errors come
// back as a textual reply so the conversation can continue.
func (s *service) Chat(ctx context.Context, sessionId string, message string) string {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("chat_turn", time.Since(start)) }()

	sess := s.session(sessionId)
	reply, err := sess.agent.Run(ctx, message)
	if err != nil {
		s.logger.Error("chat turn failed", "sessionId", sessionId, "error", err)
		return fmt.Sprintf("Sorry, an error occurred while handling your request: %s", err)
	}
	return reply
}

func (s *service) History(ctx context.Context, sessionId string) ([]chatmodel.Message, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionId]
	s.mu.Unlock()
	if !ok {
		return []chatmodel.Message{}, nil
	}
	return sess.store.Messages(ctx)
}

// Clear drops the session entirely. A later message under the same id
// starts a fresh conversation.
func (s *service) Clear(ctx context.Context, sessionId string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionId]
	if ok {
		delete(s.sessions, sessionId)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	metrics.DecrementActiveSessions()
	if err := sess.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session %s: %w", sessionId, err)
	}
	return nil
}

// session returns the existing session or creates one. Concurrent callers
// with the same id get the same agent.
func (s *service) session(sessionId string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionId]; ok {
		return sess
	}

	store := s.newMemory(sessionId)
	sess := &session{
		agent: agent.New(s.provider, s.tool, store),
		store: store,
	}
	s.sessions[sessionId] = sess
	metrics.IncrementActiveSessions()
	s.logger.Info("session created", "sessionId", sessionId)
	return sess
}
