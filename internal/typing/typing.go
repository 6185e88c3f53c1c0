package typing

import (
	"context"
	"time"

	"github.com/c-pro/geche"
)

// Registry tracks short-lived per-pair typing flags. State lives in a TTL
// cache rather than a persisted table: the stop signal can be lost (client
// navigates away), so the TTL bounds staleness, and a flag this ephemeral
// has no business surviving a restart.
type Registry struct {
	flags geche.Geche[string, int64]
}

func New(ctx context.Context, ttl time.Duration) *Registry {
	cleanup := ttl
	if cleanup > time.Second {
		cleanup = time.Second
	}
	return &Registry{
		flags: geche.NewMapTTLCache[string, int64](ctx, ttl, cleanup),
	}
}

// Set replaces the flag for the (sender, receiver) pair: true inserts a
// fresh entry, false clears it immediately.
func (r *Registry) Set(userID, receiverID string, isTyping bool) {
	k := key(userID, receiverID)
	if isTyping {
		r.flags.Set(k, time.Now().UnixMilli())
		return
	}
	_ = r.flags.Del(k)
}

func (r *Registry) IsTyping(userID, receiverID string) bool {
	_, err := r.flags.Get(key(userID, receiverID))
	return err == nil
}

// Pairs are directed: alice typing to bob is independent of bob typing to
// alice.
func key(userID, receiverID string) string {
	return userID + "\x00" + receiverID
}
