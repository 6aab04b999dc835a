// Package redis implements queue.Channel on Redis. Each channel is a sorted
// set of message ids scored by the time they become visible, plus hashes for
// bodies, insertion times, dequeue counts and lease tokens. Every operation is
// a single Lua script so concurrent receivers never lease the same message.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"abcretail/pkg/platform/queue"
	"abcretail/pkg/platform/sentinel"
)

const nowMillis = `
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
`

// KEYS[1] holds the sequence and the epoch it counts in. Losing that key
// starts a new epoch, so ids stay unique.
var appendScript = redis.NewScript(nowMillis + `
redis.call('HSETNX', KEYS[1], 'epoch', ARGV[2])
local epoch = redis.call('HGET', KEYS[1], 'epoch')
local id = string.format('%020d', redis.call('HINCRBY', KEYS[1], 'n', 1)) .. '-' .. epoch
redis.call('ZADD', KEYS[2], now, id)
redis.call('HSET', KEYS[3], id, ARGV[1])
redis.call('HSET', KEYS[4], id, now)
return id
`)

var peekScript = redis.NewScript(nowMillis + `
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', now, 'LIMIT', 0, tonumber(ARGV[1]))
local out = {}
for _, id in ipairs(ids) do
  table.insert(out, id)
  table.insert(out, redis.call('HGET', KEYS[2], id) or '')
  table.insert(out, redis.call('HGET', KEYS[3], id) or '0')
  table.insert(out, redis.call('HGET', KEYS[4], id) or '0')
end
return out
`)

var receiveScript = redis.NewScript(nowMillis + `
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', now, 'LIMIT', 0, tonumber(ARGV[1]))
local exp = now + tonumber(ARGV[2])
local out = {}
for i, id in ipairs(ids) do
  local token = ARGV[2 + i]
  redis.call('ZADD', KEYS[1], exp, id)
  local deq = redis.call('HINCRBY', KEYS[4], id, 1)
  redis.call('HSET', KEYS[5], id, token)
  table.insert(out, id)
  table.insert(out, redis.call('HGET', KEYS[2], id) or '')
  table.insert(out, redis.call('HGET', KEYS[3], id) or '0')
  table.insert(out, tostring(deq))
  table.insert(out, token)
  table.insert(out, tostring(exp))
end
return out
`)

// Returns 1 on delete, 0 when the message is gone, -1 for a stale or elapsed lease.
var deleteScript = redis.NewScript(nowMillis + `
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score then
  return 0
end
local token = redis.call('HGET', KEYS[5], ARGV[1])
if ARGV[2] == '' or token ~= ARGV[2] then
  return -1
end
if tonumber(score) <= now then
  return -1
end
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
redis.call('HDEL', KEYS[4], ARGV[1])
redis.call('HDEL', KEYS[5], ARGV[1])
return 1
`)

// Channel is a Redis-backed queue.Channel.
type Channel struct {
	client redis.Scripter
	name   string
	lease  time.Duration

	seqKey   string
	visKey   string
	bodyKey  string
	insKey   string
	deqKey   string
	leaseKey string
}

// Option configures a Channel.
type Option func(*Channel)

// WithLease sets the receive lease duration.
func WithLease(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.lease = d
		}
	}
}

// New returns the channel called name. Keys live under prefix:name.
func New(client redis.Scripter, prefix, name string, opts ...Option) *Channel {
	base := name
	if prefix != "" {
		base = prefix + ":" + name
	}
	c := &Channel{
		client:   client,
		name:     name,
		lease:    queue.DefaultLease,
		seqKey:   base + ":seq",
		visKey:   base + ":vis",
		bodyKey:  base + ":body",
		insKey:   base + ":ins",
		deqKey:   base + ":deq",
		leaseKey: base + ":lease",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) Name() string { return c.name }

func (c *Channel) Append(ctx context.Context, body string) (string, error) {
	id, err := appendScript.Run(ctx, c.client, []string{c.seqKey, c.visKey, c.bodyKey, c.insKey}, body, uuid.NewString()).Text()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.name, err)
	}
	return id, nil
}

func (c *Channel) Peek(ctx context.Context, max int) ([]queue.Message, error) {
	max = queue.ClampBatch(max)
	flat, err := peekScript.Run(ctx, c.client, []string{c.visKey, c.bodyKey, c.insKey, c.deqKey}, max).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("peek %s: %w", c.name, err)
	}
	if len(flat)%4 != 0 {
		return nil, fmt.Errorf("peek %s: malformed reply of %d fields", c.name, len(flat))
	}
	out := make([]queue.Message, 0, len(flat)/4)
	for i := 0; i < len(flat); i += 4 {
		out = append(out, queue.Message{
			ID:           flat[i],
			Body:         flat[i+1],
			InsertedAt:   parseMillis(flat[i+2]),
			DequeueCount: parseInt(flat[i+3]),
		})
	}
	return out, nil
}

func (c *Channel) Receive(ctx context.Context, max int) ([]queue.Message, error) {
	max = queue.ClampBatch(max)
	args := make([]any, 0, max+2)
	args = append(args, max, c.lease.Milliseconds())
	for i := 0; i < max; i++ {
		args = append(args, uuid.NewString())
	}
	keys := []string{c.visKey, c.bodyKey, c.insKey, c.deqKey, c.leaseKey}
	flat, err := receiveScript.Run(ctx, c.client, keys, args...).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", c.name, err)
	}
	if len(flat)%6 != 0 {
		return nil, fmt.Errorf("receive %s: malformed reply of %d fields", c.name, len(flat))
	}
	out := make([]queue.Message, 0, len(flat)/6)
	for i := 0; i < len(flat); i += 6 {
		out = append(out, queue.Message{
			ID:             flat[i],
			Body:           flat[i+1],
			InsertedAt:     parseMillis(flat[i+2]),
			DequeueCount:   parseInt(flat[i+3]),
			LeaseToken:     flat[i+4],
			LeaseExpiresAt: parseMillis(flat[i+5]),
		})
	}
	return out, nil
}

func (c *Channel) Delete(ctx context.Context, id, leaseToken string) error {
	keys := []string{c.visKey, c.bodyKey, c.insKey, c.deqKey, c.leaseKey}
	res, err := deleteScript.Run(ctx, c.client, keys, id, leaseToken).Int()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", c.name, err)
	}
	switch res {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("message %s: %w", id, sentinel.ErrNotFound)
	default:
		return fmt.Errorf("message %s: stale or elapsed lease: %w", id, sentinel.ErrExpired)
	}
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
