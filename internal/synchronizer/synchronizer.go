//go:generate mockgen -source=synchronizer.go -destination=mocks/remote_mock.go -package=mocks

// Package synchronizer keeps a staff session's local projection of the
// feedback set. Mutations are applied locally first and reconciled with the
// store's answer: success keeps them, any error restores the exact
// pre-mutation snapshot. Change events from the feed are applied in sequence
// order, except that events for a record with an operation in flight wait
// until that operation resolves.
package synchronizer

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"feedback_service/internal/domain"
	"feedback_service/internal/logging"
	"feedback_service/internal/service"
)

// ErrOperationPending rejects a second mutation on a record whose first one
// has not resolved yet.
var ErrOperationPending = errors.New("an operation on this feedback is still pending")

// Remote is the authoritative store as seen from a staff session.
type Remote interface {
	ChangeStatus(ctx context.Context, id int64, target domain.Status) (*domain.FeedbackSubmission, error)
	AttachResponse(ctx context.Context, id int64, text string) (*domain.FeedbackSubmission, error)
	DeleteFeedback(ctx context.Context, id int64) error
	BulkChangeStatus(ctx context.Context, ids []int64, target domain.Status) (*service.BulkResult, error)
	BulkDelete(ctx context.Context, ids []int64) (*service.BulkResult, error)
}

type opKind string

const (
	opNone     opKind = ""
	opStatus   opKind = "status"
	opResponse opKind = "response"
	opDelete   opKind = "delete"
)

type entry struct {
	// nil while a delete is in flight or when the record was unknown locally
	record   *domain.FeedbackSubmission
	pending  opKind
	snapshot *domain.FeedbackSubmission
	buffered []domain.ChangeEvent
}

type Option func(s *Synchronizer)

func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Synchronizer) { s.logger = logger }
}

type Synchronizer struct {
	remote Remote
	now    func() time.Time
	logger *logging.Logger

	mu      sync.Mutex
	entries map[int64]*entry
	lastSeq int64
}

func New(remote Remote, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote:  remote,
		now:     time.Now,
		logger:  logging.NewNop(),
		entries: make(map[int64]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the projection with records read at sequence seq. Records
// with an operation in flight keep their local state.
func (s *Synchronizer) Load(records []*domain.FeedbackSubmission, seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.pending == opNone {
			delete(s.entries, id)
		}
	}
	for _, r := range records {
		if e, ok := s.entries[r.ID]; ok && e.pending != opNone {
			continue
		}
		s.entries[r.ID] = &entry{record: r.Clone()}
	}
	s.lastSeq = seq
}

func (s *Synchronizer) LastSequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

func (s *Synchronizer) Get(id int64) (*domain.FeedbackSubmission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.record == nil {
		return nil, false
	}
	return e.record.Clone(), true
}

// Snapshot returns a deep copy of the visible projection, newest first.
func (s *Synchronizer) Snapshot() []*domain.FeedbackSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.FeedbackSubmission, 0, len(s.entries))
	for _, e := range s.entries {
		if e.record != nil {
			out = append(out, e.record.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *domain.FeedbackSubmission) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

func (s *Synchronizer) Pending(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return ok && e.pending != opNone
}

// Apply folds one change event into the projection. Events at or below the
// last applied sequence are duplicates and are dropped; it reports whether
// evt was accepted.
func (s *Synchronizer) Apply(evt domain.ChangeEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if evt.Sequence <= s.lastSeq {
		return false
	}
	s.lastSeq = evt.Sequence

	if e, ok := s.entries[evt.SubmissionID]; ok && e.pending != opNone {
		e.buffered = append(e.buffered, evt)
		return true
	}
	s.applyLocked(evt)
	return true
}

// Consume applies events from seq until it ends, yields an error, or ctx is
// done. It returns the first error.
func (s *Synchronizer) Consume(ctx context.Context, seq iter.Seq2[domain.ChangeEvent, error]) error {
	for evt, err := range seq {
		if err != nil {
			return err
		}
		s.Apply(evt)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return ctx.Err()
}

func (s *Synchronizer) applyLocked(evt domain.ChangeEvent) {
	switch evt.Kind {
	case domain.EventDeleted:
		delete(s.entries, evt.SubmissionID)
	case domain.EventCreated, domain.EventStatusChanged, domain.EventResponseAttached:
		if evt.Payload.Submission == nil {
			return
		}
		e, ok := s.entries[evt.SubmissionID]
		if !ok {
			e = &entry{}
			s.entries[evt.SubmissionID] = e
		}
		e.record = evt.Payload.Submission.Clone()
	}
}

func (s *Synchronizer) ChangeStatus(ctx context.Context, id int64, target domain.Status) (*domain.FeedbackSubmission, error) {
	err := s.begin(id, opStatus, func(f *domain.FeedbackSubmission) *domain.FeedbackSubmission {
		f.Status = target
		return f
	})
	if err != nil {
		return nil, err
	}

	result, err := s.remote.ChangeStatus(ctx, id, target)
	s.resolve(ctx, id, result, err)
	return result, err
}

func (s *Synchronizer) AttachResponse(ctx context.Context, id int64, text string) (*domain.FeedbackSubmission, error) {
	now := s.now().UTC()
	err := s.begin(id, opResponse, func(f *domain.FeedbackSubmission) *domain.FeedbackSubmission {
		f.AttachResponse(text, now)
		return f
	})
	if err != nil {
		return nil, err
	}

	result, err := s.remote.AttachResponse(ctx, id, text)
	s.resolve(ctx, id, result, err)
	return result, err
}

func (s *Synchronizer) DeleteFeedback(ctx context.Context, id int64) error {
	if err := s.begin(id, opDelete, hide); err != nil {
		return err
	}

	err := s.remote.DeleteFeedback(ctx, id)
	s.resolve(ctx, id, nil, err)
	return err
}

func (s *Synchronizer) BulkChangeStatus(ctx context.Context, ids []int64, target domain.Status) (*service.BulkResult, error) {
	return s.bulk(ctx, ids, opStatus,
		func(f *domain.FeedbackSubmission) *domain.FeedbackSubmission {
			f.Status = target
			return f
		},
		func(ctx context.Context, ids []int64) (*service.BulkResult, error) {
			return s.remote.BulkChangeStatus(ctx, ids, target)
		},
	)
}

func (s *Synchronizer) BulkDelete(ctx context.Context, ids []int64) (*service.BulkResult, error) {
	return s.bulk(ctx, ids, opDelete, hide, s.remote.BulkDelete)
}

func (s *Synchronizer) bulk(
	ctx context.Context,
	ids []int64,
	op opKind,
	mutate func(*domain.FeedbackSubmission) *domain.FeedbackSubmission,
	call func(context.Context, []int64) (*service.BulkResult, error),
) (*service.BulkResult, error) {
	order := make([]int64, 0, len(ids))
	failures := make(map[int64]error, len(ids))
	accepted := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := failures[id]; dup {
			continue
		}
		order = append(order, id)
		if err := s.begin(id, op, mutate); err != nil {
			failures[id] = err
			continue
		}
		failures[id] = nil
		accepted = append(accepted, id)
	}

	if len(accepted) > 0 {
		remote, err := call(ctx, accepted)
		if err != nil {
			for _, id := range accepted {
				s.resolve(ctx, id, nil, err)
			}
			return nil, err
		}

		outcome := make(map[int64]error, len(accepted))
		for _, id := range remote.Succeeded {
			outcome[id] = nil
		}
		for _, f := range remote.Failed {
			outcome[f.ID] = f.Err
		}
		for _, id := range accepted {
			err, ok := outcome[id]
			if !ok {
				err = errors.New("no outcome reported for feedback")
			}
			s.resolve(ctx, id, nil, err)
			failures[id] = err
		}
	}

	result := &service.BulkResult{Succeeded: []int64{}, Failed: []service.BulkFailure{}}
	for _, id := range order {
		if err := failures[id]; err != nil {
			result.Failed = append(result.Failed, service.BulkFailure{ID: id, Err: err})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

func hide(*domain.FeedbackSubmission) *domain.FeedbackSubmission {
	return nil
}

// begin snapshots id, applies mutate to the projection and marks the entry
// pending.
func (s *Synchronizer) begin(id int64, op opKind, mutate func(*domain.FeedbackSubmission) *domain.FeedbackSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	if e.pending != opNone {
		return ErrOperationPending
	}

	e.snapshot = e.record.Clone()
	e.pending = op
	if e.record != nil {
		e.record = mutate(e.record.Clone())
	}
	return nil
}

// resolve settles the pending operation on id. On error the snapshot is
// restored unconditionally; on success an authoritative result, when there
// is one, replaces the optimistic value. Buffered events are applied after.
func (s *Synchronizer) resolve(ctx context.Context, id int64, result *domain.FeedbackSubmission, opErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.pending == opNone {
		return
	}
	op := e.pending

	switch {
	case opErr != nil:
		e.record = e.snapshot
		s.logger.Warn(ctx, "optimistic update rolled back",
			zap.Int64("id", id),
			zap.String("op", string(op)),
			zap.Error(opErr),
		)
	case op == opDelete:
		e.record = nil
	case result != nil:
		e.record = result.Clone()
	}
	e.pending = opNone
	e.snapshot = nil

	buffered := e.buffered
	e.buffered = nil
	if e.record == nil {
		delete(s.entries, id)
	}
	for _, evt := range buffered {
		s.applyLocked(evt)
	}
}
