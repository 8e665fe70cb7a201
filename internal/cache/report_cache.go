package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"intelidoc/internal/grc"
)

// ReportCache keeps the latest cross-platform report in Redis so repeated
// monitor calls do not rerun the full detection pass. Obligation and
// mapping mutations mark the cached report dirty.
type ReportCache struct {
	client         *redisv9.Client
	reportTTL      time.Duration
	dirtyMarkerTTL time.Duration
}

func NewReportCache(client *redisv9.Client, reportTTL, dirtyMarkerTTL time.Duration) *ReportCache {
	if reportTTL <= 0 {
		reportTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &ReportCache{
		client:         client,
		reportTTL:      reportTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *ReportCache) GetReport(ctx context.Context) (*grc.Report, bool, error) {
	raw, err := c.client.Get(ctx, c.reportKey()).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get report failed: %w", err)
	}

	var report grc.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached report failed: %w", err)
	}
	return &report, true, nil
}

func (c *ReportCache) SetReport(ctx context.Context, report *grc.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.reportKey(), payload, c.reportTTL).Err(); err != nil {
		return fmt.Errorf("redis set report failed: %w", err)
	}
	return nil
}

func (c *ReportCache) DeleteReport(ctx context.Context) error {
	if err := c.client.Del(ctx, c.reportKey()).Err(); err != nil {
		return fmt.Errorf("redis delete report failed: %w", err)
	}
	return nil
}

func (c *ReportCache) MarkDirty(ctx context.Context) error {
	if err := c.client.Set(ctx, c.dirtyKey(), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *ReportCache) IsDirty(ctx context.Context) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey()).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *ReportCache) reportKey() string {
	return "grc:report:latest"
}

func (c *ReportCache) dirtyKey() string {
	return "grc:report:dirty"
}
