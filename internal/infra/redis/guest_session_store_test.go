package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestGuestSessionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewGuestSessionStore(client, time.Minute)
	ctx := context.Background()

	if n, err := store.RecordAttempt(ctx, "sess-1", "mat-1", "q1"); err != nil || n != 1 {
		t.Fatalf("expected attempt 1, got %d err=%v", n, err)
	}
	if n, err := store.RecordAttempt(ctx, "sess-1", "mat-1", "q1"); err != nil || n != 2 {
		t.Fatalf("expected attempt 2, got %d err=%v", n, err)
	}

	if !mr.Exists("guest:sess-1:answered:mat-1") {
		t.Fatalf("expected answered set key in redis")
	}

	count, err := store.AttemptCount(ctx, "sess-1", "mat-1", "q1")
	if err != nil || count != 2 {
		t.Fatalf("expected 2 attempts, got %d err=%v", count, err)
	}

	// Unknown triple reports zero without error.
	count, err = store.AttemptCount(ctx, "sess-1", "mat-1", "q9")
	if err != nil || count != 0 {
		t.Fatalf("expected 0 attempts, got %d err=%v", count, err)
	}

	answered, err := store.AnsweredQuestionIDs(ctx, "sess-1", "mat-1")
	if err != nil {
		t.Fatalf("answered: %v", err)
	}
	if _, ok := answered["q1"]; !ok || len(answered) != 1 {
		t.Fatalf("expected {q1}, got %v", answered)
	}

	// Session state expires with the TTL.
	mr.FastForward(2 * time.Minute)
	answered, err = store.AnsweredQuestionIDs(ctx, "sess-1", "mat-1")
	if err != nil {
		t.Fatalf("answered after expiry: %v", err)
	}
	if len(answered) != 0 {
		t.Fatalf("expected expired session state, got %v", answered)
	}
}
