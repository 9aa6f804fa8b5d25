package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the slot key only while it still names the caller's session.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the slot key's TTL only while it still names the caller's session.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// SessionSlots tracks running games in Redis so several bot processes can share one slot.
// The TTL frees a slot whose holder crashed without releasing it.
type SessionSlots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionSlots(client *redis.Client, ttl time.Duration) *SessionSlots {
	return &SessionSlots{client: client, ttl: ttl}
}

func (s *SessionSlots) Acquire(ctx context.Context, slot, sessionID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(slot), sessionID, s.ttl).Result()
	if err != nil || ok {
		return ok, err
	}
	holder, err := s.client.Get(ctx, s.key(slot)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return holder == sessionID, nil
}

func (s *SessionSlots) Release(ctx context.Context, slot, sessionID string) error {
	return releaseScript.Run(ctx, s.client, []string{s.key(slot)}, sessionID).Err()
}

// Refresh extends the holder's lease. It fails when the slot expired or moved to another session.
func (s *SessionSlots) Refresh(ctx context.Context, slot, sessionID string) error {
	n, err := refreshScript.Run(ctx, s.client, []string{s.key(slot)}, sessionID, s.ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("slot %s no longer held by session %s", slot, sessionID)
	}
	return nil
}

func (s *SessionSlots) key(slot string) string {
	return "quiz:slot:" + slot
}
