package service

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"

	"feedback_service/internal/ctxdata"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/logging"
)

const defaultBulkConcurrency = 8

type Option func(s *FeedbackService)

func WithClock(now func() time.Time) Option {
	return func(s *FeedbackService) { s.now = now }
}

func WithWorkflow(wf domain.Workflow) Option {
	return func(s *FeedbackService) { s.workflow = wf }
}

func WithBulkConcurrency(n int) Option {
	return func(s *FeedbackService) {
		if n > 0 {
			s.bulkConcurrency = n
		}
	}
}

func WithTrackingCache(cache TrackingCache) Option {
	return func(s *FeedbackService) { s.cache = cache }
}

func WithChangeSubscriber(sub ChangeSubscriber) Option {
	return func(s *FeedbackService) { s.changes = sub }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *FeedbackService) { s.logger = logger }
}

// FeedbackService is the authoritative feedback store. It owns the status
// state machine and appends one change event per accepted mutation.
type FeedbackService struct {
	repo            FeedbackRepository
	publisher       EventPublisher
	changes         ChangeSubscriber
	cache           TrackingCache
	workflow        domain.Workflow
	now             func() time.Time
	bulkConcurrency int
	logger          *logging.Logger
}

func NewFeedbackService(repo FeedbackRepository, publisher EventPublisher, opts ...Option) *FeedbackService {
	s := &FeedbackService{
		repo:            repo,
		publisher:       publisher,
		workflow:        domain.NewWorkflow(false),
		now:             time.Now,
		bulkConcurrency: defaultBulkConcurrency,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type FeedbackList struct {
	Items []*domain.FeedbackSubmission `json:"items"`
	// Sequence is the latest change event observed before the read; a
	// session that loads Items subscribes from here.
	Sequence int64 `json:"sequence"`
}

func (s *FeedbackService) SubmitFeedback(ctx context.Context, input *domain.SubmitInput) (*domain.FeedbackSubmission, error) {
	if input == nil {
		return nil, errdefs.Validation("empty submission")
	}
	in := *input
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.rollback(ctx, tx)

	now := s.now().UTC()
	feedback := &domain.FeedbackSubmission{
		Submitter: in.Submitter(),
		Category:  in.Category,
		Subject:   in.Subject,
		Message:   in.Message,
		Status:    domain.StatusPending,
		CreatedAt: now,
	}
	if err := tx.InsertFeedback(ctx, feedback); err != nil {
		return nil, err
	}

	evt := domain.NewCreatedEvent(feedback, now)
	if err := s.commit(ctx, tx, &evt); err != nil {
		return nil, err
	}

	s.log(ctx).Info(ctx, "feedback submitted",
		zap.Int64("id", feedback.ID),
		zap.String("tracking_code", feedback.TrackingCode()),
		zap.String("category", string(feedback.Category)),
		zap.Bool("anonymous", feedback.IsAnonymous()),
	)
	return feedback, nil
}

func (s *FeedbackService) ChangeStatus(ctx context.Context, id int64, target domain.Status) (*domain.FeedbackSubmission, error) {
	if !ctxdata.IsStaff(ctx) {
		return nil, errdefs.ErrPermissionDenied
	}
	if !target.IsValid() {
		return nil, errdefs.Validation("unknown status %q", target)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.rollback(ctx, tx)

	feedback, err := tx.GetFeedbackForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := feedback.Status
	if !s.workflow.CanTransition(previous, target) {
		return nil, &errdefs.InvalidTransitionError{ID: id, From: string(previous), To: string(target)}
	}

	feedback.Status = target
	if err := tx.UpdateFeedback(ctx, feedback); err != nil {
		return nil, err
	}

	evt := domain.NewStatusChangedEvent(feedback, previous, s.now().UTC())
	if err := s.commit(ctx, tx, &evt); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.log(ctx).Info(ctx, "feedback status changed",
		zap.Int64("id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
	)
	return feedback, nil
}

func (s *FeedbackService) AttachResponse(ctx context.Context, id int64, text string) (*domain.FeedbackSubmission, error) {
	if !ctxdata.IsStaff(ctx) {
		return nil, errdefs.ErrPermissionDenied
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errdefs.Validation("response is required")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.rollback(ctx, tx)

	feedback, err := tx.GetFeedbackForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := feedback.Status
	now := s.now().UTC()
	feedback.AttachResponse(text, now)
	if err := tx.UpdateFeedback(ctx, feedback); err != nil {
		return nil, err
	}

	evt := domain.NewResponseAttachedEvent(feedback, previous, now)
	if err := s.commit(ctx, tx, &evt); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.log(ctx).Info(ctx, "feedback response attached",
		zap.Int64("id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(feedback.Status)),
	)
	return feedback, nil
}

func (s *FeedbackService) DeleteFeedback(ctx context.Context, id int64) error {
	if !ctxdata.IsStaff(ctx) {
		return errdefs.ErrPermissionDenied
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	if err := tx.DeleteFeedback(ctx, id); err != nil {
		return err
	}

	evt := domain.NewDeletedEvent(id, s.now().UTC())
	if err := s.commit(ctx, tx, &evt); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.log(ctx).Info(ctx, "feedback deleted", zap.Int64("id", id))
	return nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, id int64) (*domain.FeedbackSubmission, error) {
	if !ctxdata.IsStaff(ctx) {
		return nil, errdefs.ErrPermissionDenied
	}
	return s.repo.GetFeedback(ctx, id)
}

func (s *FeedbackService) ListFeedback(ctx context.Context, filter domain.FeedbackFilter) (*FeedbackList, error) {
	if !ctxdata.IsStaff(ctx) {
		return nil, errdefs.ErrPermissionDenied
	}

	seq, err := s.repo.LatestSequence(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListFeedback(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &FeedbackList{Items: items, Sequence: seq}, nil
}

// SubscribeChanges streams change events after from, for staff sessions.
func (s *FeedbackService) SubscribeChanges(ctx context.Context, from int64) (iter.Seq2[domain.ChangeEvent, error], error) {
	if !ctxdata.IsStaff(ctx) {
		return nil, errdefs.ErrPermissionDenied
	}
	if s.changes == nil {
		return nil, errors.New("change feed is not configured")
	}
	return s.changes.SubscribeFrom(ctx, from), nil
}

func (s *FeedbackService) LatestSequence(ctx context.Context) (int64, error) {
	if !ctxdata.IsStaff(ctx) {
		return 0, errdefs.ErrPermissionDenied
	}
	return s.repo.LatestSequence(ctx)
}

// commit appends evt inside tx, commits, then hands the sequenced event to
// the publisher. The publisher never sees an event that is not durable.
func (s *FeedbackService) commit(ctx context.Context, tx FeedbackRepositoryTx, evt *domain.ChangeEvent) error {
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.Publish(*evt)
	}
	return nil
}

func (s *FeedbackService) rollback(ctx context.Context, tx FeedbackRepositoryTx) {
	if err := tx.Rollback(ctx); err != nil {
		s.log(ctx).Error(ctx, "failed to rollback", zap.Error(err))
	}
}

func (s *FeedbackService) invalidate(ctx context.Context, id int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func (s *FeedbackService) log(ctx context.Context) *logging.Logger {
	return logging.FromContext(ctx, s.logger)
}
