package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// releaseScript deletes the lock only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// LockKey returns the namespaced key of a named lock.
func (c *Client) LockKey(name string) string {
	return buildKey("lock", name)
}

// Acquire takes the named lock for ttl and reports false when someone else holds it.
func (c *Client) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := c.SetNX(ctx, c.LockKey(name), token, ttl)
	if err != nil || !ok {
		return false, err
	}
	c.mu.Lock()
	if c.tokens == nil {
		c.tokens = map[string]string{}
	}
	c.tokens[name] = token
	c.mu.Unlock()
	return true, nil
}

// Release drops a lock this client acquired. A lock that expired and was
// taken by another holder is left alone.
func (c *Client) Release(ctx context.Context, name string) error {
	if c.store == nil {
		return errNotInitialized
	}
	c.mu.Lock()
	token, ok := c.tokens[name]
	delete(c.tokens, name)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.store.Eval(ctx, releaseScript, []string{c.LockKey(name)}, token).Err()
}
