package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the counter, starts the window on the first hit and
// returns {count, pttl}.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Redis is a fixed-window Limiter shared by every replica.
type Redis struct {
	client redis.UniversalClient
	rule   Rule
	prefix string
}

// NewRedis returns a Redis limiter for rule. Keys live under "rate:<rule>:".
func NewRedis(client redis.UniversalClient, rule Rule) (*Redis, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}

	return &Redis{client: client, rule: rule, prefix: "rate:" + rule.Name + ":"}, nil
}

// Allow counts one request for key.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := fixedWindow.Run(ctx, r.client, []string{r.prefix + key}, r.rule.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("ratelimit: unexpected script reply %v", vals)
	}

	count := int(vals[0])

	return Result{
		Allowed:    count <= r.rule.Limit,
		Limit:      r.rule.Limit,
		Remaining:  max(r.rule.Limit-count, 0),
		RetryAfter: time.Duration(vals[1]) * time.Millisecond,
	}, nil
}
