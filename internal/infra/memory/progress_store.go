package memory

import (
	"context"
	"sync"

	"material-quiz-service/internal/domain"
)

// ProgressStore is an in-memory append-only progress log implementing
// app.ProgressRepository.
type ProgressStore struct {
	mu      sync.RWMutex
	entries []domain.ProgressEntry
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{}
}

func (s *ProgressStore) Append(_ context.Context, entry domain.ProgressEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *ProgressStore) CorrectQuestionIDs(_ context.Context, userKey, materialID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{})
	for _, e := range s.entries {
		if e.UserKey == userKey && e.MaterialID == materialID && e.Correct {
			ids[e.QuestionID] = struct{}{}
		}
	}
	return ids, nil
}

func (s *ProgressStore) AnsweredQuestionIDs(_ context.Context, userKey, materialID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{})
	for _, e := range s.entries {
		if e.UserKey == userKey && e.MaterialID == materialID && e.Answered {
			ids[e.QuestionID] = struct{}{}
		}
	}
	return ids, nil
}

func (s *ProgressStore) AttemptCount(_ context.Context, userKey, materialID, questionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.entries {
		if e.UserKey == userKey && e.MaterialID == materialID && e.QuestionID == questionID {
			count++
		}
	}
	return count, nil
}

// Len reports how many entries have been appended (test helper).
func (s *ProgressStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
