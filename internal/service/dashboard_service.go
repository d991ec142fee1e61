package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kirtipatel215/Internship-Management-System-sub002/internal/models"
	appErrors "github.com/kirtipatel215/Internship-Management-System-sub002/pkg/errors"
)

const dashboardStatsCacheKey = "dashboard:noc:status_counts"

type statusCounter interface {
	CountByStatus(ctx context.Context) (*models.NOCStatusCounts, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
	ObserveDBQuery(label string, duration time.Duration)
}

// DashboardService serves display aggregates over the request table.
// These are pure counts, cached with a short TTL.
type DashboardService struct {
	repo    statusCounter
	cache   statsCache
	metrics cacheMetrics
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(repo statusCounter, cache statsCache, metrics cacheMetrics, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// StatusCounts returns request counts per status, cache-aside.
func (s *DashboardService) StatusCounts(ctx context.Context) (*models.NOCStatusCounts, error) {
	if s.cache != nil {
		var cached models.NOCStatusCounts
		err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached)
		if err == nil {
			s.recordCache(true)
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		s.recordCache(false)
	}

	start := time.Now()
	counts, err := s.repo.CountByStatus(ctx)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("noc_status_counts", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsCacheKey, counts, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return counts, nil
}

// Invalidate drops the cached aggregates, called when a request changes
// state.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardStatsCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit)
	}
}
