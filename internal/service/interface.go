//go:generate mockgen -source=interface.go -destination=mocks/interface_mock.go -package=mocks

package service

import (
	"context"
	"iter"

	"feedback_service/internal/domain"
)

type FeedbackRepository interface {
	BeginTx(ctx context.Context) (FeedbackRepositoryTx, error)

	GetFeedback(ctx context.Context, id int64) (*domain.FeedbackSubmission, error)
	ListFeedback(ctx context.Context, filter domain.FeedbackFilter) ([]*domain.FeedbackSubmission, error)
	LatestSequence(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// FeedbackRepositoryTx is one atomic unit: record mutation plus its change
// event. Nothing is visible to readers or the feed before Commit.
type FeedbackRepositoryTx interface {
	InsertFeedback(ctx context.Context, f *domain.FeedbackSubmission) error
	GetFeedbackForUpdate(ctx context.Context, id int64) (*domain.FeedbackSubmission, error)
	UpdateFeedback(ctx context.Context, f *domain.FeedbackSubmission) error
	DeleteFeedback(ctx context.Context, id int64) error
	AppendEvent(ctx context.Context, evt *domain.ChangeEvent) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// EventPublisher is notified after an event's transaction committed.
type EventPublisher interface {
	Publish(evt domain.ChangeEvent)
}

type ChangeSubscriber interface {
	SubscribeFrom(ctx context.Context, from int64) iter.Seq2[domain.ChangeEvent, error]
	LatestSequence(ctx context.Context) (int64, error)
}

// TrackingCache holds public views. Fill never overwrites an existing entry;
// Invalidate is called after commit and must beat any Fill still in flight.
type TrackingCache interface {
	Get(ctx context.Context, id int64) (*domain.PublicFeedbackView, bool)
	Fill(ctx context.Context, id int64, view *domain.PublicFeedbackView)
	Invalidate(ctx context.Context, id int64)
}
