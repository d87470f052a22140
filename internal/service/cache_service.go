package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const dayScheduleKeyPrefix = "schedule:day:"

// DayScheduleKey builds the cache key for one date's schedule view.
func DayScheduleKey(date time.Time) string {
	return dayScheduleKeyPrefix + date.Format("2006-01-02")
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.metrics.RecordCacheOperation(false, duration)
			return false, nil
		}
		s.metrics.RecordCacheOperation(false, duration)
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores a cache entry with the default TTL. Failures are logged, not
// propagated; the cache is best effort.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Set(ctx, key, value, s.defaultTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateDaySchedule drops the cached day view for one date.
func (s *CacheService) InvalidateDaySchedule(ctx context.Context, date time.Time) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, DayScheduleKey(date)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("date", date.Format("2006-01-02")), zap.Error(err))
	}
}

// InvalidateAllSchedules drops every cached day view. Lesson writes change
// every recurrence of the affected day, so the blanket purge is the safe one.
func (s *CacheService) InvalidateAllSchedules(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, fmt.Sprintf("%s*", dayScheduleKeyPrefix)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}
