package memory

import (
	"context"
	"sync"
)

// GuestSessionStore keeps per-session guest state in process memory:
// the answered-for-review set and attempt counters.
type GuestSessionStore struct {
	mu       sync.RWMutex
	answered map[string]map[string]struct{} // sessionKey/materialID -> question ids
	attempts map[string]int                 // sessionKey/materialID/questionID -> attempts
}

func NewGuestSessionStore() *GuestSessionStore {
	return &GuestSessionStore{
		answered: make(map[string]map[string]struct{}),
		attempts: make(map[string]int),
	}
}

func (s *GuestSessionStore) RecordAttempt(_ context.Context, sessionKey, materialID, questionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setKey := sessionKey + "/" + materialID
	set, ok := s.answered[setKey]
	if !ok {
		set = make(map[string]struct{})
		s.answered[setKey] = set
	}
	set[questionID] = struct{}{}

	countKey := setKey + "/" + questionID
	s.attempts[countKey]++
	return s.attempts[countKey], nil
}

func (s *GuestSessionStore) AnsweredQuestionIDs(_ context.Context, sessionKey, materialID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{})
	for id := range s.answered[sessionKey+"/"+materialID] {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *GuestSessionStore) AttemptCount(_ context.Context, sessionKey, materialID, questionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts[sessionKey+"/"+materialID+"/"+questionID], nil
}
