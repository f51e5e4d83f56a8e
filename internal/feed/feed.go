// Package feed turns the durable change-event log into lazy, restartable
// subscriptions. A subscription reads the log in pages after its cursor and
// parks until a new commit is published or the poll interval elapses, so an
// event committed by another process is still picked up.
package feed

import (
	"context"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/logging"
)

const (
	defaultPageSize     = 256
	defaultPollInterval = 2 * time.Second
)

// EventLog is the read side of the change-event table.
type EventLog interface {
	ListEvents(ctx context.Context, after int64, limit int) ([]domain.ChangeEvent, error)
	LatestSequence(ctx context.Context) (int64, error)
}

type Option func(f *Feed)

func WithPageSize(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(f *Feed) { f.logger = logger }
}

type Feed struct {
	log          EventLog
	pageSize     int
	pollInterval time.Duration
	logger       *logging.Logger

	mu   sync.Mutex
	wake chan struct{}
}

func New(log EventLog, opts ...Option) *Feed {
	f := &Feed{
		log:          log,
		pageSize:     defaultPageSize,
		pollInterval: defaultPollInterval,
		logger:       logging.NewNop(),
		wake:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Publish wakes every parked subscription. The event itself is already in
// the log; subscribers re-read from their cursor.
func (f *Feed) Publish(evt domain.ChangeEvent) {
	f.mu.Lock()
	close(f.wake)
	f.wake = make(chan struct{})
	f.mu.Unlock()
	f.logger.Debug(context.Background(), "change event published",
		zap.Int64("sequence", evt.Sequence),
		zap.String("kind", string(evt.Kind)),
	)
}

func (f *Feed) LatestSequence(ctx context.Context) (int64, error) {
	return f.log.LatestSequence(ctx)
}

func (f *Feed) waitChan() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wake
}

// SubscribeFrom yields every event with a sequence greater than from, in
// sequence order, then keeps yielding new events as they commit. Read
// failures are yielded as transport errors and the subscription retries from
// the same cursor; the consumer stops by breaking out of the loop or
// cancelling ctx. Nothing is consumed until the sequence is ranged over, and
// ranging again starts over from from.
func (f *Feed) SubscribeFrom(ctx context.Context, from int64) iter.Seq2[domain.ChangeEvent, error] {
	return func(yield func(domain.ChangeEvent, error) bool) {
		cursor := max(from, 0)
		for {
			// taken before the read so a publish racing with it is not lost
			wake := f.waitChan()

			events, err := f.log.ListEvents(ctx, cursor, f.pageSize)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !yield(domain.ChangeEvent{}, errdefs.Transport("read change feed", err)) {
					return
				}
				if !f.park(ctx, nil) {
					return
				}
				continue
			}

			for _, evt := range events {
				if evt.Sequence <= cursor {
					continue
				}
				if !yield(evt, nil) {
					return
				}
				cursor = evt.Sequence
			}

			if len(events) >= f.pageSize {
				continue
			}
			if !f.park(ctx, wake) {
				return
			}
		}
	}
}

// park blocks until wake fires, the poll interval passes or ctx ends. It
// reports whether the subscription should continue.
func (f *Feed) park(ctx context.Context, wake <-chan struct{}) bool {
	timer := time.NewTimer(f.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-wake:
		return true
	case <-timer.C:
		return true
	}
}
