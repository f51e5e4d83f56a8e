// Package relay forwards committed change events to Kafka for downstream
// consumers. It resumes from a cursor kept in Redis and delivers each event
// at least once, in sequence order.
package relay

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/logging"
	"feedback_service/internal/retry"
)

const DefaultCursorKey = "feedback:relay:cursor"

type Source interface {
	SubscribeFrom(ctx context.Context, from int64) iter.Seq2[domain.ChangeEvent, error]
}

type Producer interface {
	Send(ctx context.Context, events ...domain.ChangeEvent) error
}

type CursorStore interface {
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, seq int64) error
}

type Option func(r *Relay)

func WithLogger(logger *logging.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(r *Relay) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.baseDelay = baseDelay
	}
}

type Relay struct {
	source    Source
	producer  Producer
	cursor    CursorStore
	attempts  int
	baseDelay time.Duration
	logger    *logging.Logger
}

func New(source Source, producer Producer, cursor CursorStore, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		producer:  producer,
		cursor:    cursor,
		attempts:  5,
		baseDelay: 500 * time.Millisecond,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays events until ctx ends. An event that cannot be delivered is
// retried indefinitely; the cursor never moves past it.
func (r *Relay) Run(ctx context.Context) error {
	from, err := r.cursor.Load(ctx)
	if err != nil {
		return err
	}
	r.logger.Info(ctx, "relay started", zap.Int64("from", from))

	for evt, err := range r.source.SubscribeFrom(ctx, from) {
		if err != nil {
			r.logger.Warn(ctx, "relay feed read failed", zap.Error(err))
			continue
		}
		if err := r.deliver(ctx, evt); err != nil {
			return ctx.Err()
		}
	}
	return ctx.Err()
}

func (r *Relay) deliver(ctx context.Context, evt domain.ChangeEvent) error {
	for {
		_, err := retry.WithBackoff(ctx, r.attempts, r.baseDelay, func() (struct{}, error) {
			return struct{}{}, r.producer.Send(ctx, evt)
		})
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error(ctx, "relay delivery failed, retrying",
			zap.Int64("sequence", evt.Sequence),
			zap.Error(err),
		)
		if !sleep(ctx, r.baseDelay) {
			return ctx.Err()
		}
	}

	if err := r.cursor.Save(ctx, evt.Sequence); err != nil {
		// the event may be sent again after a restart
		r.logger.Warn(ctx, "relay cursor not saved", zap.Int64("sequence", evt.Sequence), zap.Error(err))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(max(d, time.Millisecond))
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

type cursorClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type RedisCursor struct {
	rdb cursorClient
	key string
}

func NewRedisCursor(rdb cursorClient, key string) *RedisCursor {
	if key == "" {
		key = DefaultCursorKey
	}
	return &RedisCursor{rdb: rdb, key: key}
}

// Load returns the last relayed sequence, zero when none was saved.
func (c *RedisCursor) Load(ctx context.Context) (int64, error) {
	raw, err := c.rdb.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errdefs.Transport("load relay cursor", err)
	}
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errdefs.Validation("relay cursor %q: %v", raw, err)
	}
	return seq, nil
}

func (c *RedisCursor) Save(ctx context.Context, seq int64) error {
	if err := c.rdb.Set(ctx, c.key, seq, 0).Err(); err != nil {
		return errdefs.Transport("save relay cursor", err)
	}
	return nil
}
