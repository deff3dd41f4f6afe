package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReplayGuard issues single-use confirmation tokens for the destructive
// workflow entry points. A token is bound to one (operation, assignment,
// actor) tuple and consumed atomically, so a replayed confirmation is
// rejected even across concurrent requests.
type ReplayGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReplayGuard constructs the guard. Tokens expire after ttl.
func NewReplayGuard(client *redis.Client, ttl time.Duration) *ReplayGuard {
	return &ReplayGuard{client: client, ttl: ttl}
}

// Issue mints a fresh token for the operation.
func (g *ReplayGuard) Issue(ctx context.Context, operation string, assignmentID, actorID uint) (string, error) {
	token := uuid.NewString()
	key := replayKey(operation, assignmentID, actorID)
	if err := g.client.Set(ctx, key, token, g.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store confirmation token: %w", err)
	}
	return token, nil
}

// consumeScript deletes the key only when it holds the presented token, so a
// wrong guess cannot destroy a token that is still valid.
var consumeScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Consume atomically claims the token. A mismatched, expired or already
// consumed token yields ErrReplayRejected.
func (g *ReplayGuard) Consume(ctx context.Context, operation string, assignmentID, actorID uint, token string) error {
	key := replayKey(operation, assignmentID, actorID)
	claimed, err := consumeScript.Run(ctx, g.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to claim confirmation token: %w", err)
	}
	if claimed == 0 {
		return ErrReplayRejected
	}
	return nil
}

func replayKey(operation string, assignmentID, actorID uint) string {
	return fmt.Sprintf("assignflow:confirm:%s:%d:%d", operation, assignmentID, actorID)
}
