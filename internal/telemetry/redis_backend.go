package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

// leadersScript returns the top score followed by every member holding it,
// read atomically so a concurrent increment cannot empty the tie set.
var leadersScript = redis.NewScript(`
local top = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if #top == 0 then
  return {}
end
local members = redis.call('ZRANGEBYSCORE', KEYS[1], top[2], top[2])
table.insert(members, 1, top[2])
return members
`)

// RedisBackend stores telemetry in Redis through a Client.
type RedisBackend struct {
	client *Client
}

// NewRedisBackend creates a backend bound to client.
func NewRedisBackend(client *Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Ready reports whether the client is connected.
func (b *RedisBackend) Ready() bool {
	return b.client.Ready()
}

// IncrPage increments the score of path in the page views sorted set.
func (b *RedisBackend) IncrPage(ctx context.Context, path string) error {
	err := b.client.rdb.ZIncrBy(ctx, PageViewsKey, 1, path).Err()
	return b.observe(err, "zincrby")
}

// PageLeaders returns all paths tied at the top score.
func (b *RedisBackend) PageLeaders(ctx context.Context) ([]Score, error) {
	return b.leaders(ctx, PageViewsKey)
}

// IncrEntity increments the hostel counter and its index entry in one transaction.
func (b *RedisBackend) IncrEntity(ctx context.Context, id string) (int64, error) {
	pipe := b.client.rdb.TxPipeline()
	incr := pipe.Incr(ctx, EntityKey(id))
	pipe.ZIncrBy(ctx, EntityIndexKey, 1, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, b.observe(err, "incr")
	}
	return incr.Val(), nil
}

// EntityLeaders returns all hostel ids tied at the top score.
func (b *RedisBackend) EntityLeaders(ctx context.Context) ([]Score, error) {
	return b.leaders(ctx, EntityIndexKey)
}

// EntityCounters scans every hostel:* counter.
func (b *RedisBackend) EntityCounters(ctx context.Context) ([]Score, error) {
	var keys []string
	var cursor uint64

	for {
		var batch []string
		var err error

		batch, cursor, err = b.client.rdb.Scan(ctx, cursor, EntityKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, b.observe(err, "scan")
		}
		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	counts := make([]Score, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatchSize {
		end := min(start+scanBatchSize, len(keys))
		chunk := keys[start:end]

		values, err := b.client.rdb.MGet(ctx, chunk...).Result()
		if err != nil {
			return nil, b.observe(err, "mget")
		}

		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue // deleted between SCAN and MGET
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue // not a counter
			}
			id := ExtractEntityID(chunk[i])
			if id == "" {
				continue
			}
			counts = append(counts, Score{Member: id, Views: n})
		}
	}

	return counts, nil
}

// MergeEntityIndex writes counts into the index, only ever raising scores.
func (b *RedisBackend) MergeEntityIndex(ctx context.Context, counts []Score) error {
	if len(counts) == 0 {
		return nil
	}

	members := make([]redis.Z, 0, len(counts))
	for _, c := range counts {
		members = append(members, redis.Z{Score: float64(c.Views), Member: c.Member})
	}

	err := b.client.rdb.ZAddArgs(ctx, EntityIndexKey, redis.ZAddArgs{
		GT:      true,
		Members: members,
	}).Err()
	return b.observe(err, "zadd")
}

func (b *RedisBackend) leaders(ctx context.Context, key string) ([]Score, error) {
	reply, err := leadersScript.Run(ctx, b.client.rdb, []string{key}).StringSlice()
	if err != nil {
		return nil, b.observe(err, "leaders")
	}
	if len(reply) < 2 {
		return nil, nil
	}

	score, err := strconv.ParseFloat(reply[0], 64)
	if err != nil {
		return nil, fmt.Errorf("redis leaders: bad score %q: %w", reply[0], err)
	}

	views := int64(score)
	result := make([]Score, 0, len(reply)-1)
	for _, m := range reply[1:] {
		result = append(result, Score{Member: m, Views: views})
	}
	return result, nil
}

// observe reports err to the client state machine and wraps it with the command name.
func (b *RedisBackend) observe(err error, cmd string) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}
	b.client.ReportError(err)
	return fmt.Errorf("redis %s failed: %w", cmd, err)
}
