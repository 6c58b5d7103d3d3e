package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimKeyPrefix namespaces the per-job notification claims in Redis.
const ClaimKeyPrefix = "match:notified:"

// Claims records which jobs have already been fanned out. Claim returns true
// only for the first caller for a given job within ttl. Release gives a claim
// back so the job can be claimed again.
type Claims interface {
	Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, jobID string) error
}

// RedisClaims shares claims between replicas with SET NX.
type RedisClaims struct {
	rdb *redis.Client
}

func NewRedisClaims(rdb *redis.Client) *RedisClaims {
	return &RedisClaims{rdb: rdb}
}

func (c *RedisClaims) Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	_, err := c.rdb.SetArgs(ctx, ClaimKeyPrefix+jobID, time.Now().UTC().Format(time.RFC3339), redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisClaims) Release(ctx context.Context, jobID string) error {
	return c.rdb.Del(ctx, ClaimKeyPrefix+jobID).Err()
}

// MemoryClaims keeps claims in process. Used when Redis is not configured.
type MemoryClaims struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{expires: make(map[string]time.Time), now: time.Now}
}

func (c *MemoryClaims) Claim(_ context.Context, jobID string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, exp := range c.expires {
		if !now.Before(exp) {
			delete(c.expires, id)
		}
	}
	if _, taken := c.expires[jobID]; taken {
		return false, nil
	}
	c.expires[jobID] = now.Add(ttl)
	return true, nil
}

func (c *MemoryClaims) Release(_ context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.expires, jobID)
	return nil
}
