package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// GuestSessionStore keeps guest session state in Redis with a TTL:
//   - answered-for-review ids: SADD guest:{key}:answered:{materialID}
//   - attempt counters:        HINCRBY guest:{key}:attempts {materialID}:{questionID}
type GuestSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuestSessionStore(client *redis.Client, ttl time.Duration) *GuestSessionStore {
	return &GuestSessionStore{client: client, ttl: ttl}
}

func (s *GuestSessionStore) RecordAttempt(ctx context.Context, sessionKey, materialID, questionID string) (int, error) {
	answeredKey := s.answeredKey(sessionKey, materialID)
	attemptsKey := s.attemptsKey(sessionKey)

	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, answeredKey, questionID)
	incr := pipe.HIncrBy(ctx, attemptsKey, materialID+":"+questionID, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, answeredKey, s.ttl)
		pipe.Expire(ctx, attemptsKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *GuestSessionStore) AnsweredQuestionIDs(ctx context.Context, sessionKey, materialID string) (map[string]struct{}, error) {
	members, err := s.client.SMembers(ctx, s.answeredKey(sessionKey, materialID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(members))
	for _, id := range members {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *GuestSessionStore) AttemptCount(ctx context.Context, sessionKey, materialID, questionID string) (int, error) {
	raw, err := s.client.HGet(ctx, s.attemptsKey(sessionKey), materialID+":"+questionID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return count, nil
}

func (s *GuestSessionStore) answeredKey(sessionKey, materialID string) string {
	return "guest:" + sessionKey + ":answered:" + materialID
}

func (s *GuestSessionStore) attemptsKey(sessionKey string) string {
	return "guest:" + sessionKey + ":attempts"
}
