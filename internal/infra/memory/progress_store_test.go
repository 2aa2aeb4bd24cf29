package memory

import (
	"context"
	"testing"

	"material-quiz-service/internal/domain"
)

func TestProgressStoreDerivesStateFromLog(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	entries := []domain.ProgressEntry{
		{UserKey: "u1", MaterialID: "mat-1", QuestionID: "q1", Answered: true, Correct: false, AttemptNumber: 1},
		{UserKey: "u1", MaterialID: "mat-1", QuestionID: "q1", Answered: true, Correct: true, Score: 10, AttemptNumber: 2},
		{UserKey: "u1", MaterialID: "mat-1", QuestionID: "q2", Answered: true, Correct: false, AttemptNumber: 1},
		{UserKey: "u2", MaterialID: "mat-1", QuestionID: "q1", Answered: true, Correct: true, AttemptNumber: 1},
	}
	for _, e := range entries {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	correct, err := store.CorrectQuestionIDs(ctx, "u1", "mat-1")
	if err != nil {
		t.Fatalf("correct ids: %v", err)
	}
	if len(correct) != 1 {
		t.Fatalf("expected only q1 correct for u1, got %v", correct)
	}
	if _, ok := correct["q1"]; !ok {
		t.Fatalf("expected q1 correct, got %v", correct)
	}

	answered, err := store.AnsweredQuestionIDs(ctx, "u1", "mat-1")
	if err != nil {
		t.Fatalf("answered ids: %v", err)
	}
	if len(answered) != 2 {
		t.Fatalf("expected q1 and q2 answered, got %v", answered)
	}

	count, err := store.AttemptCount(ctx, "u1", "mat-1", "q1")
	if err != nil || count != 2 {
		t.Fatalf("expected 2 attempts for u1/q1, got %d err=%v", count, err)
	}
}
