package memory

import (
	"context"
	"fmt"
	"sync"
)

// SessionSlots is an in-memory implementation of app.SessionSlots.
type SessionSlots struct {
	mu    sync.Mutex
	slots map[string]string
}

func NewSessionSlots() *SessionSlots {
	return &SessionSlots{
		slots: make(map[string]string),
	}
}

func (s *SessionSlots) Acquire(_ context.Context, slot, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if holder, ok := s.slots[slot]; ok && holder != sessionID {
		return false, nil
	}
	s.slots[slot] = sessionID
	return true, nil
}

// Release frees slot if sessionID still holds it.
func (s *SessionSlots) Release(_ context.Context, slot, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots[slot] == sessionID {
		delete(s.slots, slot)
	}
	return nil
}

// Refresh reports whether sessionID still holds slot. In-memory slots never expire.
func (s *SessionSlots) Refresh(_ context.Context, slot, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots[slot] != sessionID {
		return fmt.Errorf("slot %s not held by session %s", slot, sessionID)
	}
	return nil
}

// Holder returns the session currently holding slot.
func (s *SessionSlots) Holder(slot string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holder, ok := s.slots[slot]
	return holder, ok
}
