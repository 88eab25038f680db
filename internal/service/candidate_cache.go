package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/roster-service/internal/domain"
)

// CandidateCacheKey holds the JSON list of employee summaries.
const CandidateCacheKey = "employees:options"

// SummaryLoader reads summaries from the store.
type SummaryLoader interface {
	ListSummaries(ctx context.Context) ([]domain.EmployeeSummary, error)
}

// CandidateCache serves the manager drop-down from Redis, falling back to the store.
type CandidateCache struct {
	loader SummaryLoader
	rdb    *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger
}

// NewCandidateCache wires the cache. A nil client or zero ttl disables caching.
func NewCandidateCache(loader SummaryLoader, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CandidateCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateCache{loader: loader, rdb: rdb, ttl: ttl, logger: logger.Named("roster.candidates")}
}

// Options returns every employee summary ordered by name.
func (c *CandidateCache) Options(ctx context.Context) ([]domain.EmployeeSummary, error) {
	if c.enabled() {
		cached, err := c.rdb.Get(ctx, CandidateCacheKey).Bytes()
		switch {
		case err == nil:
			var summaries []domain.EmployeeSummary
			if jsonErr := json.Unmarshal(cached, &summaries); jsonErr == nil {
				return summaries, nil
			}
			c.logger.Warn("discarding malformed candidate cache entry")
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("candidate cache read failed", zap.Error(err))
		}
	}

	v, err, _ := c.sf.Do(CandidateCacheKey, func() (interface{}, error) {
		summaries, err := c.loader.ListSummaries(ctx)
		if err != nil {
			return nil, err
		}
		if c.enabled() {
			if payload, err := json.Marshal(summaries); err == nil {
				if err := c.rdb.Set(ctx, CandidateCacheKey, payload, c.ttl).Err(); err != nil {
					c.logger.Warn("candidate cache write failed", zap.Error(err))
				}
			}
		}
		return summaries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.EmployeeSummary), nil
}

// Invalidate drops the cached list after employees are added or removed.
func (c *CandidateCache) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, CandidateCacheKey).Err()
}

func (c *CandidateCache) enabled() bool {
	return c.rdb != nil && c.ttl > 0
}
