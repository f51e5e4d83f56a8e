// Package memory is an in-process feedback store with the same transactional
// contract as the Postgres repository. Writers are serialized; a transaction
// stages its changes and applies them only on Commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/service"
)

type Repository struct {
	writeMu sync.Mutex

	mu       sync.RWMutex
	records  map[int64]*domain.FeedbackSubmission
	events   []domain.ChangeEvent
	lastID   int64
	lastSeq  int64
	pingFunc func(ctx context.Context) error
}

func New() *Repository {
	return &Repository{records: make(map[int64]*domain.FeedbackSubmission)}
}

// SetPing replaces the health check, letting tests simulate an unreachable store.
func (r *Repository) SetPing(fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pingFunc = fn
}

func (r *Repository) Ping(ctx context.Context) error {
	r.mu.RLock()
	fn := r.pingFunc
	r.mu.RUnlock()
	if fn != nil {
		return fn(ctx)
	}
	return ctx.Err()
}

func (r *Repository) BeginTx(ctx context.Context) (service.FeedbackRepositoryTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, errdefs.Transport("begin tx", err)
	}
	r.writeMu.Lock()
	return &tx{repo: r, staged: make(map[int64]*domain.FeedbackSubmission), deleted: make(map[int64]bool)}, nil
}

func (r *Repository) GetFeedback(_ context.Context, id int64) (*domain.FeedbackSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.records[id]
	if !ok {
		return nil, errdefs.ErrNotFound
	}
	return f.Clone(), nil
}

func (r *Repository) ListFeedback(_ context.Context, filter domain.FeedbackFilter) ([]*domain.FeedbackSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.FeedbackSubmission, 0, len(r.records))
	for _, f := range r.records {
		if filter.Matches(f) {
			out = append(out, f.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Repository) ListEvents(_ context.Context, after int64, limit int) ([]domain.ChangeEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// sequences are dense from 1, so the event with sequence n sits at n-1
	start := int(max(after, 0))
	if start >= len(r.events) {
		return nil, nil
	}
	end := len(r.events)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	out := make([]domain.ChangeEvent, 0, end-start)
	for _, evt := range r.events[start:end] {
		out = append(out, cloneEvent(evt))
	}
	return out, nil
}

func (r *Repository) LatestSequence(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSeq, nil
}

type tx struct {
	repo    *Repository
	staged  map[int64]*domain.FeedbackSubmission
	deleted map[int64]bool
	created []int64
	events  []*domain.ChangeEvent
	nextID  int64
	nextSeq int64
	done    bool
}

func (t *tx) InsertFeedback(_ context.Context, f *domain.FeedbackSubmission) error {
	if t.nextID == 0 {
		t.nextID = t.repo.peekLastID()
	}
	t.nextID++
	f.ID = t.nextID
	t.staged[f.ID] = f.Clone()
	t.created = append(t.created, f.ID)
	return nil
}

func (t *tx) GetFeedbackForUpdate(ctx context.Context, id int64) (*domain.FeedbackSubmission, error) {
	if t.deleted[id] {
		return nil, errdefs.ErrNotFound
	}
	if f, ok := t.staged[id]; ok {
		return f.Clone(), nil
	}
	return t.repo.GetFeedback(ctx, id)
}

func (t *tx) UpdateFeedback(ctx context.Context, f *domain.FeedbackSubmission) error {
	if _, err := t.GetFeedbackForUpdate(ctx, f.ID); err != nil {
		return err
	}
	t.staged[f.ID] = f.Clone()
	return nil
}

func (t *tx) DeleteFeedback(ctx context.Context, id int64) error {
	if _, err := t.GetFeedbackForUpdate(ctx, id); err != nil {
		return err
	}
	delete(t.staged, id)
	t.deleted[id] = true
	return nil
}

func (t *tx) AppendEvent(_ context.Context, evt *domain.ChangeEvent) error {
	if t.nextSeq == 0 {
		t.nextSeq = t.repo.peekLastSeq()
	}
	t.nextSeq++
	evt.Sequence = t.nextSeq
	stored := cloneEvent(*evt)
	t.events = append(t.events, &stored)
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errdefs.Transport("commit", err)
	}
	r := t.repo
	r.mu.Lock()
	for id, f := range t.staged {
		r.records[id] = f
	}
	for id := range t.deleted {
		delete(r.records, id)
	}
	if t.nextID > r.lastID {
		r.lastID = t.nextID
	}
	for _, evt := range t.events {
		r.events = append(r.events, *evt)
		r.lastSeq = evt.Sequence
	}
	r.mu.Unlock()
	t.finish()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	// ids handed out by a rolled back insert are burnt, never reused
	if t.nextID > 0 {
		t.repo.mu.Lock()
		if t.nextID > t.repo.lastID {
			t.repo.lastID = t.nextID
		}
		t.repo.mu.Unlock()
	}
	t.finish()
	return nil
}

func (t *tx) finish() {
	t.done = true
	t.repo.writeMu.Unlock()
}

func (r *Repository) peekLastID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastID
}

func (r *Repository) peekLastSeq() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSeq
}

func cloneEvent(evt domain.ChangeEvent) domain.ChangeEvent {
	evt.Payload.Submission = evt.Payload.Submission.Clone()
	return evt
}
