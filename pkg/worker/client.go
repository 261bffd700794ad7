package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoResult is returned by Client.Result when no result is stored for a
// job, either because it has not run yet or its result TTL expired.
var ErrNoResult = errors.New("no result stored for job")

// Client enqueues jobs onto the queue a worker consumes from.
type Client struct {
	settings *Settings
	rdb      *redis.Client
}

func NewClient(settings *Settings) *Client {
	s := settings.withDefaults()
	return &Client{
		settings: s,
		rdb: redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		}),
	}
}

// Enqueue pushes a job for the named function onto the queue. Args may be
// nil for functions that take no arguments.
func (c *Client) Enqueue(ctx context.Context, function string, args any) (*Job, error) {
	if function == "" {
		return nil, errors.New("enqueue job: empty function name")
	}

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode job args: %w", err)
		}
		raw = b
	}

	job := &Job{
		ID:         uuid.NewString(),
		Function:   function,
		Args:       raw,
		EnqueuedAt: time.Now().UTC(),
	}
	payload, err := job.encode()
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}

	if err := c.rdb.RPush(ctx, c.settings.queueKey(), payload).Err(); err != nil {
		return nil, fmt.Errorf("enqueue job on %s: %w", c.settings.queueKey(), err)
	}
	return job, nil
}

// Result fetches the stored result of a previously enqueued job.
func (c *Client) Result(ctx context.Context, jobID string) (*Result, error) {
	raw, err := c.rdb.Get(ctx, resultKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNoResult)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch result for job %s: %w", jobID, err)
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode result for job %s: %w", jobID, err)
	}
	return &result, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
