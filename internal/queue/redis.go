package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/contacts/internal/jobs"
	"github.com/geocoder89/contacts/internal/queue/redisclient"
	"github.com/redis/go-redis/v9"
)

// Redis keeps ready jobs in a list (LPUSH/BRPOP) and delayed retries in a sorted set scored by RunAt.
type Redis struct {
	client     *redis.Client
	readyKey   string
	delayedKey string
	wait       time.Duration
	now        func() time.Time
}

// promoteScript moves up to ARGV[2] members scored at or below ARGV[1] from the
// delayed set (KEYS[1]) to the ready list (KEYS[2]) in one atomic step.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, m in ipairs(due) do
	redis.call('ZREM', KEYS[1], m)
	redis.call('LPUSH', KEYS[2], m)
end
return #due
`)

const promoteBatch = 100

func NewRedis(c *redisclient.Client) *Redis {
	return &Redis{
		client:     c.Raw(),
		readyKey:   c.Key("jobs:ready"),
		delayedKey: c.Key("jobs:delayed"),
		wait:       time.Second,
		now:        time.Now,
	}
}

func (q *Redis) Enqueue(ctx context.Context, j jobs.Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	if j.Due(q.now()) {
		return q.client.LPush(ctx, q.readyKey, b).Err()
	}

	return q.client.ZAdd(ctx, q.delayedKey, redis.Z{
		Score:  float64(j.RunAt.UnixMilli()),
		Member: b,
	}).Err()
}

func (q *Redis) Dequeue(ctx context.Context) (jobs.Job, error) {
	if err := q.promoteDue(ctx); err != nil {
		return jobs.Job{}, err
	}

	res, err := q.client.BRPop(ctx, q.wait, q.readyKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, ErrEmpty
		}
		return jobs.Job{}, err
	}

	// res = [key, value]
	if len(res) != 2 {
		return jobs.Job{}, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}

	var j jobs.Job
	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return jobs.Job{}, fmt.Errorf("%w: %v", jobs.ErrInvalidJobPayload, err)
	}

	return j, nil
}

// promoteDue moves delayed jobs whose RunAt has passed onto the ready list.
// The removal and the push happen in one script call.
func (q *Redis) promoteDue(ctx context.Context) error {
	upTo := strconv.FormatInt(q.now().UnixMilli(), 10)

	err := promoteScript.Run(ctx, q.client, []string{q.delayedKey, q.readyKey}, upTo, promoteBatch).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("promote delayed jobs: %w", err)
	}

	return nil
}

func (q *Redis) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
