package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"psychicline-backend/internal/models"
)

const (
	DefaultStatsDays = 7
	MaxStatsDays     = 90
	visitorKeyTTL    = (MaxStatsDays + 1) * 24 * time.Hour
)

type statsReader interface {
	Platform(ctx context.Context) (*models.PlatformStats, error)
}

// AnalyticsService counts visitors in Redis and serves the admin dashboards.
type AnalyticsService struct {
	redis *redis.Client
	stats statsReader
	now   func() time.Time
}

func NewAnalyticsService(redisClient *redis.Client, stats statsReader) *AnalyticsService {
	return &AnalyticsService{redis: redisClient, stats: stats, now: time.Now}
}

func visitorsKey(day string) string  { return "visitors:" + day }
func pageviewsKey(day string) string { return "pageviews:" + day }

// StatsDays returns the UTC dates, oldest first, covering the last n days
// including today.
func StatsDays(now time.Time, n int) []string {
	days := make([]string, n)
	today := now.UTC()
	for i := 0; i < n; i++ {
		days[n-1-i] = today.AddDate(0, 0, -i).Format("2006-01-02")
	}
	return days
}

// ClampStatsDays applies the default and upper bound to a requested range.
func ClampStatsDays(days int) int {
	if days <= 0 {
		return DefaultStatsDays
	}
	if days > MaxStatsDays {
		return MaxStatsDays
	}
	return days
}

// Track records a page view and adds the visitor to today's HyperLogLog.
func (s *AnalyticsService) Track(ctx context.Context, req models.TrackVisitRequest) error {
	visitor := strings.TrimSpace(req.VisitorID)
	if visitor == "" || len(visitor) > 128 {
		return &ValidationError{Fields: map[string]string{"visitorId": "Visitor ID is required"}}
	}

	day := s.now().UTC().Format("2006-01-02")
	pipe := s.redis.TxPipeline()
	pipe.PFAdd(ctx, visitorsKey(day), visitor)
	pipe.Expire(ctx, visitorsKey(day), visitorKeyTTL)
	pipe.Incr(ctx, pageviewsKey(day))
	pipe.Expire(ctx, pageviewsKey(day), visitorKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("track visit: %w", err)
	}
	return nil
}

func (s *AnalyticsService) VisitorStats(ctx context.Context, days int) (*models.VisitorStats, error) {
	dates := StatsDays(s.now(), ClampStatsDays(days))

	pipe := s.redis.Pipeline()
	uniques := make([]*redis.IntCmd, len(dates))
	views := make([]*redis.StringCmd, len(dates))
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = visitorsKey(d)
		uniques[i] = pipe.PFCount(ctx, visitorsKey(d))
		views[i] = pipe.Get(ctx, pageviewsKey(d))
	}
	total := pipe.PFCount(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("visitor stats: %w", err)
	}

	out := &models.VisitorStats{Days: make([]models.VisitorDay, len(dates)), UniqueVisitors: total.Val()}
	for i, d := range dates {
		pv, _ := views[i].Int64()
		out.Days[i] = models.VisitorDay{Date: d, UniqueVisitors: uniques[i].Val(), PageViews: pv}
		out.PageViews += pv
	}
	return out, nil
}

func (s *AnalyticsService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	return s.stats.Platform(ctx)
}
