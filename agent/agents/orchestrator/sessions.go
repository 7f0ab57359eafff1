package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

// sessionCache holds the committed context of every live conversation and
// mirrors each commit to a durable store. Callers always get copies.
type sessionCache struct {
	mu     sync.RWMutex
	items  map[string]*statex.ConversationContext
	mirror statex.Store
}

var _ statex.Store = (*sessionCache)(nil)

func newSessionCache(mirror statex.Store) *sessionCache {
	return &sessionCache{
		items:  make(map[string]*statex.ConversationContext),
		mirror: mirror,
	}
}

func (s *sessionCache) Load(ctx context.Context, conversationID string) (*statex.ConversationContext, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, statex.ErrInvalidConversationID
	}

	s.mu.RLock()
	c, ok := s.items[conversationID]
	s.mu.RUnlock()
	if ok {
		return c.Clone(), nil
	}

	c, err := s.mirror.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, statex.ErrContextNotFound
	}

	s.mu.Lock()
	if _, raced := s.items[conversationID]; !raced {
		s.items[conversationID] = c.Clone()
	}
	s.mu.Unlock()
	return c, nil
}

// Save commits in memory first; a mirror failure is returned but the commit stands.
func (s *sessionCache) Save(ctx context.Context, c *statex.ConversationContext) error {
	if c == nil {
		return statex.ErrNilContext
	}

	s.mu.Lock()
	s.items[c.ConversationID] = c.Clone()
	s.mu.Unlock()

	if err := s.mirror.Save(ctx, c); err != nil {
		return fmt.Errorf("mirror save: %w", err)
	}
	return nil
}

func (s *sessionCache) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.items, conversationID)
	s.mu.Unlock()

	if err := s.mirror.Delete(ctx, conversationID); err != nil && !errors.Is(err, statex.ErrContextNotFound) {
		return err
	}
	return nil
}
