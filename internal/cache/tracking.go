package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"feedback_service/internal/domain"
	"feedback_service/internal/logging"
)

const (
	trackingKeyPrefix = "feedback:track:"

	// DefaultInvalidationHold is how long a changed record refuses read fills.
	DefaultInvalidationHold = 30 * time.Second
)

// holdMarker occupies the key after a write so that a reader holding a row
// loaded before the commit cannot put it back.
var holdMarker = []byte("~")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	SetNX(ctx context.Context, key string, data []byte, ttl time.Duration) bool
	Delete(ctx context.Context, key string)
}

// TrackingCache keeps public tracking views keyed by submission id.
//
// Reads fill a missing key with SETNX. Writes replace the entry with a
// short-lived hold marker after commit, which reads treat as a miss and
// which makes every concurrent fill lose.
type TrackingCache struct {
	store  Store
	ttl    time.Duration
	hold   time.Duration
	logger *logging.Logger
}

type TrackingOption func(*TrackingCache)

func WithInvalidationHold(d time.Duration) TrackingOption {
	return func(c *TrackingCache) {
		if d > 0 {
			c.hold = d
		}
	}
}

func NewTrackingCache(store Store, ttl time.Duration, logger *logging.Logger, opts ...TrackingOption) *TrackingCache {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &TrackingCache{store: store, ttl: ttl, hold: DefaultInvalidationHold, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func trackingKey(id int64) string {
	return trackingKeyPrefix + strconv.FormatInt(id, 10)
}

func (c *TrackingCache) Get(ctx context.Context, id int64) (*domain.PublicFeedbackView, bool) {
	data, ok := c.store.Get(ctx, trackingKey(id))
	if !ok || bytes.Equal(data, holdMarker) {
		return nil, false
	}
	var view domain.PublicFeedbackView
	if err := json.Unmarshal(data, &view); err != nil {
		c.logger.Warn(ctx, "dropping unreadable tracking view", zap.Int64("id", id), zap.Error(err))
		c.store.Delete(ctx, trackingKey(id))
		return nil, false
	}
	return &view, true
}

// Fill caches view unless the key is already taken, by a view or a hold.
func (c *TrackingCache) Fill(ctx context.Context, id int64, view *domain.PublicFeedbackView) {
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Error(ctx, "failed to encode tracking view", zap.Int64("id", id), zap.Error(err))
		return
	}
	if !c.store.SetNX(ctx, trackingKey(id), data, c.ttl) {
		c.logger.Debug(ctx, "tracking view not cached", zap.Int64("id", id))
	}
}

// Invalidate must run after the write committed.
func (c *TrackingCache) Invalidate(ctx context.Context, id int64) {
	c.store.Set(ctx, trackingKey(id), holdMarker, c.hold)
}
