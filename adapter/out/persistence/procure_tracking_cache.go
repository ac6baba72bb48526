package persistence

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"procure_server/core/domain"

	"github.com/redis/go-redis/v9"
)

// CachedTrackingAdapter wraps TrackingAdapter with Redis caching. Tracking
// records are immutable after send, so positive entries can live long; a
// short negative entry stops retry storms from hammering the database with
// the same unknown token.
type CachedTrackingAdapter struct {
	delegate *TrackingAdapter
	rdb      *redis.Client
	ttl      time.Duration
}

// NewCachedTrackingAdapter creates a new cached tracking adapter.
func NewCachedTrackingAdapter(delegate *TrackingAdapter, rdb *redis.Client) *CachedTrackingAdapter {
	return &CachedTrackingAdapter{
		delegate: delegate,
		rdb:      rdb,
		ttl:      30 * time.Minute,
	}
}

func trackingCacheKey(trackingID string) string {
	return "tracking:" + trackingID
}

// negativeMarker is cached for tokens with no tracking record.
const negativeMarker = "{}"

func (a *CachedTrackingAdapter) Create(ctx context.Context, rec *domain.TrackingRecord) error {
	if err := a.delegate.Create(ctx, rec); err != nil {
		return err
	}
	if data, err := json.Marshal(rec); err == nil {
		_ = a.rdb.Set(ctx, trackingCacheKey(rec.TrackingID), data, a.ttl).Err()
	}
	return nil
}

func (a *CachedTrackingAdapter) GetByTrackingID(ctx context.Context, trackingID string) (*domain.TrackingRecord, error) {
	key := trackingCacheKey(trackingID)

	if data, err := a.rdb.Get(ctx, key).Result(); err == nil {
		if data == negativeMarker {
			return nil, nil
		}
		var rec domain.TrackingRecord
		if err := json.Unmarshal([]byte(data), &rec); err == nil {
			return &rec, nil
		}
	}

	rec, err := a.delegate.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		if data, err := json.Marshal(rec); err == nil {
			_ = a.rdb.Set(ctx, key, data, a.ttl).Err()
		}
	} else {
		_ = a.rdb.Set(ctx, key, negativeMarker, 5*time.Minute).Err()
	}
	return rec, nil
}
