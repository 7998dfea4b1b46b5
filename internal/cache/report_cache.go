// Package cache keeps short-lived report snapshots in Redis. A nil client
// turns every call into a miss, so callers never need to check.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"complaint-service/internal/model"
)

const departmentCountsKey = "reports:department_counts"

// NewRedisClient connects to addr and pings it. It returns nil when the
// server is unreachable.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) Enabled() bool {
	return c != nil && c.client != nil
}

// DepartmentCounts reports ok=false on a miss or when the cache is disabled.
func (c *ReportCache) DepartmentCounts(ctx context.Context) ([]model.DepartmentComplaintCount, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, departmentCountsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var counts []model.DepartmentComplaintCount
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, false, err
	}
	return counts, true, nil
}

func (c *ReportCache) StoreDepartmentCounts(ctx context.Context, counts []model.DepartmentComplaintCount) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, departmentCountsKey, raw, c.ttl).Err()
}

func (c *ReportCache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, departmentCountsKey).Err()
}
