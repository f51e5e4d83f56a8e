package fanout

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"feedback_service/internal/domain"
	"feedback_service/internal/logging"
)

var (
	// ErrBehind means the session's queue overflowed. The consumer should
	// resubscribe from the last sequence it processed.
	ErrBehind = errors.New("session fell behind the change feed")
	ErrClosed = errors.New("session closed")
)

// Notification is one queued event together with the session's unread
// count right after the event was applied.
type Notification struct {
	Event  domain.ChangeEvent
	Unread int
}

type Session struct {
	id     string
	owner  string
	hub    *Hub
	logger *logging.Logger
	queue  chan Notification

	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func() bool

	errOnce sync.Once
	err     error
	errMu   sync.Mutex

	lastSeq atomic.Int64

	// guarded by hub.mu
	catchingUp bool
	pending    []domain.ChangeEvent

	unreadMu   sync.Mutex
	unread     map[int64]struct{}
	trackedSeq int64
}

// newSession starts a session after from. With a prior session it keeps the
// prior id and unread set, and events the prior session already counted do
// not change the set again.
func newSession(parent context.Context, h *Hub, from int64, owner string, prior *Session) *Session {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	s := &Session{
		id:     newSessionID(),
		owner:  owner,
		hub:    h,
		queue:  make(chan Notification, h.queueSize),
		ctx:    ctx,
		cancel: cancel,
		unread: make(map[int64]struct{}),
	}
	if prior != nil {
		s.id = prior.id
		prior.unreadMu.Lock()
		s.unread = maps.Clone(prior.unread)
		s.trackedSeq = prior.trackedSeq
		prior.unreadMu.Unlock()
	}
	s.logger = h.logger.With(zap.String("session_id", s.id))
	s.lastSeq.Store(max(from, 0))
	s.stopWatch = context.AfterFunc(parent, s.Close)
	return s
}

// ID names the session for ResumeSession.
func (s *Session) ID() string {
	return s.id
}

// Events yields queued notifications in sequence order. It is never closed;
// select on Done as well.
func (s *Session) Events() <-chan Notification {
	return s.queue
}

// Done is closed when the session ends; Err then tells why.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// LastSequence is the highest sequence queued to this session.
func (s *Session) LastSequence() int64 {
	return s.lastSeq.Load()
}

func (s *Session) UnreadCount() int {
	s.unreadMu.Lock()
	defer s.unreadMu.Unlock()
	return len(s.unread)
}

// Unread lists unread submission ids in ascending order.
func (s *Session) Unread() []int64 {
	s.unreadMu.Lock()
	ids := make([]int64, 0, len(s.unread))
	for id := range s.unread {
		ids = append(ids, id)
	}
	s.unreadMu.Unlock()
	slices.Sort(ids)
	return ids
}

// MarkRead clears one submission and returns the remaining count. Unknown
// ids are ignored.
func (s *Session) MarkRead(id int64) int {
	s.unreadMu.Lock()
	defer s.unreadMu.Unlock()
	delete(s.unread, id)
	return len(s.unread)
}

func (s *Session) MarkAllRead() {
	s.unreadMu.Lock()
	defer s.unreadMu.Unlock()
	clear(s.unread)
}

// Close detaches the session. It is safe to call more than once.
func (s *Session) Close() {
	s.finish(ErrClosed)
	s.hub.remove(s)
}

func (s *Session) markBehind() {
	s.finish(ErrBehind)
}

func (s *Session) finish(err error) {
	s.errOnce.Do(func() {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
		s.stopWatch()
		s.cancel()
	})
}

// previewLocked returns the unread count evt would produce and the change
// that produces it, to be applied once evt is actually queued.
func (s *Session) previewLocked(evt domain.ChangeEvent) (int, func()) {
	count := len(s.unread)
	if evt.Sequence <= s.trackedSeq {
		return count, func() {}
	}
	_, seen := s.unread[evt.SubmissionID]
	switch {
	case evt.Kind == domain.EventCreated && !seen:
		count++
	case evt.Kind == domain.EventDeleted && seen:
		count--
	}
	return count, func() {
		s.trackedSeq = evt.Sequence
		switch evt.Kind {
		case domain.EventCreated:
			s.unread[evt.SubmissionID] = struct{}{}
		case domain.EventDeleted:
			delete(s.unread, evt.SubmissionID)
		}
	}
}

// enqueue queues evt and only then counts it as unread. With a nil wait it
// never blocks and reports false on a full queue; otherwise it waits for
// room until wait is closed.
func (s *Session) enqueue(evt domain.ChangeEvent, wait <-chan struct{}) bool {
	s.unreadMu.Lock()
	defer s.unreadMu.Unlock()

	count, apply := s.previewLocked(evt)
	note := Notification{Event: evt, Unread: count}
	if wait == nil {
		select {
		case s.queue <- note:
		default:
			return false
		}
	} else {
		select {
		case s.queue <- note:
		case <-wait:
			return false
		}
	}
	apply()
	s.lastSeq.Store(evt.Sequence)
	s.hub.metrics.delivered.Inc()
	return true
}

// offer queues evt without blocking. It reports false when the queue is full.
func (s *Session) offer(evt domain.ChangeEvent) bool {
	if evt.Sequence <= s.lastSeq.Load() || s.ctx.Err() != nil {
		return true
	}
	return s.enqueue(evt, nil)
}

// send queues evt, waiting for room. It reports false once the session ended.
func (s *Session) send(evt domain.ChangeEvent) bool {
	if evt.Sequence <= s.lastSeq.Load() {
		return true
	}
	if s.ctx.Err() != nil {
		return false
	}
	return s.enqueue(evt, s.ctx.Done())
}

// catchUp replays the backlog up to target, then drains live events that
// piled up meanwhile and hands the session over to the dispatcher.
func (s *Session) catchUp(target int64) {
	for evt, err := range s.hub.feed.SubscribeFrom(s.ctx, s.LastSequence()) {
		if err != nil {
			s.logger.Warn(s.ctx, "backlog read failed", zap.Error(err))
			s.hub.markBehind(s)
			return
		}
		if evt.Sequence > target {
			break
		}
		if !s.send(evt) {
			return
		}
		if evt.Sequence == target {
			break
		}
	}
	if s.ctx.Err() != nil {
		return
	}

	for {
		s.hub.mu.Lock()
		if s.ctx.Err() != nil {
			s.hub.mu.Unlock()
			return
		}
		if len(s.pending) == 0 {
			s.catchingUp = false
			s.hub.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = nil
		s.hub.mu.Unlock()

		for _, evt := range batch {
			if !s.send(evt) {
				return
			}
		}
	}
}
