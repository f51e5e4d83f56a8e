// Package fanout delivers committed change events to every attached staff
// session. One feed subscription drives all sessions; each session owns a
// bounded queue, and a session that cannot keep up is detached as behind
// instead of slowing the others down. A detached session's unread set is
// kept for a grace period so that the same staff member can resume it.
package fanout

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"feedback_service/internal/ctxdata"
	"feedback_service/internal/domain"
	"feedback_service/internal/logging"
)

const (
	defaultQueueSize   = 64
	defaultResumeGrace = 2 * time.Minute
)

type Subscriber interface {
	SubscribeFrom(ctx context.Context, from int64) iter.Seq2[domain.ChangeEvent, error]
	LatestSequence(ctx context.Context) (int64, error)
}

type Config struct {
	QueueSize int
	// ResumeGrace is how long a detached session can be resumed.
	ResumeGrace time.Duration
	Registerer  prometheus.Registerer
	Logger      *logging.Logger
}

type Hub struct {
	feed      Subscriber
	queueSize int
	grace     time.Duration
	logger    *logging.Logger
	metrics   *hubMetrics

	ready     chan struct{}
	readyOnce sync.Once

	mu         sync.Mutex
	sessions   map[string]*Session
	parked     map[string]parkedSession
	closing    bool
	dispatched int64
}

type parkedSession struct {
	sess    *Session
	expires time.Time
}

type attachOptions struct {
	resumeID string
}

type AttachOption func(*attachOptions)

// ResumeSession continues the session with this id: its unread set carries
// over if it ended less than the grace period ago and belongs to the same
// staff member. A still attached session with that id is closed first.
// Unknown or expired ids start a fresh session.
func ResumeSession(id string) AttachOption {
	return func(o *attachOptions) { o.resumeID = id }
}

func NewHub(feed Subscriber, cfg Config) *Hub {
	h := &Hub{
		feed:      feed,
		queueSize: cfg.QueueSize,
		grace:     cfg.ResumeGrace,
		logger:    cfg.Logger,
		ready:     make(chan struct{}),
		sessions:  make(map[string]*Session),
		parked:    make(map[string]parkedSession),
	}
	if h.queueSize <= 0 {
		h.queueSize = defaultQueueSize
	}
	if h.grace <= 0 {
		h.grace = defaultResumeGrace
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	h.initMetrics(cfg.Registerer)
	return h
}

// Run dispatches events committed after the moment it starts until ctx
// ends, then closes every session. Sessions can attach once Run is going.
func (h *Hub) Run(ctx context.Context) error {
	start, err := h.feed.LatestSequence(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.dispatched = max(h.dispatched, start)
	start = h.dispatched
	h.mu.Unlock()
	h.metrics.lastSequence.Set(float64(start))
	h.readyOnce.Do(func() { close(h.ready) })

	h.logger.Info(ctx, "fan-out hub started", zap.Int64("sequence", start))
	defer h.closeAll()

	for evt, err := range h.feed.SubscribeFrom(ctx, start) {
		if err != nil {
			h.metrics.feedReadErrors.Inc()
			h.logger.Warn(ctx, "change feed read failed", zap.Error(err))
			continue
		}
		h.dispatch(evt)
	}
	return ctx.Err()
}

// Attach opens a session that receives every event after from: first the
// backlog read from the feed, then live events, with no gaps or repeats.
// The session ends when ctx does or when Close is called.
func (h *Hub) Attach(ctx context.Context, from int64, opts ...AttachOption) (*Session, error) {
	select {
	case <-h.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var o attachOptions
	for _, opt := range opts {
		opt(&o)
	}
	owner, _ := ctxdata.GetStaffID(ctx)
	prior := h.takeOver(o.resumeID, owner)

	s := newSession(ctx, h, from, owner, prior)

	h.mu.Lock()
	target := h.dispatched
	h.sessions[s.id] = s
	h.metrics.sessions.Set(float64(len(h.sessions)))
	if from < target {
		s.catchingUp = true
	}
	h.mu.Unlock()

	s.logger.Debug(ctx, "session attached",
		zap.Int64("from", from),
		zap.Int64("head", target),
		zap.Bool("resumed", prior != nil),
	)

	if s.catchingUp {
		go s.catchUp(target)
	}
	return s, nil
}

// takeOver returns the parked session id for owner, detaching it first if
// it is still attached.
func (h *Hub) takeOver(id, owner string) *Session {
	if id == "" {
		return nil
	}

	h.mu.Lock()
	live, ok := h.sessions[id]
	h.mu.Unlock()
	if ok && live.owner == owner {
		live.Close()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.purgeParkedLocked(time.Now())
	p, ok := h.parked[id]
	if !ok || p.sess.owner != owner {
		return nil
	}
	delete(h.parked, id)
	return p.sess
}

// SessionCount reports the attached sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) dispatch(evt domain.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if evt.Sequence <= h.dispatched {
		return
	}
	h.dispatched = evt.Sequence
	h.metrics.lastSequence.Set(float64(evt.Sequence))

	for _, s := range h.sessions {
		if s.catchingUp {
			if len(s.pending) >= h.queueSize {
				h.detachBehindLocked(s)
				continue
			}
			s.pending = append(s.pending, evt)
			continue
		}
		if !s.offer(evt) {
			h.detachBehindLocked(s)
		}
	}
}

func (h *Hub) detachBehindLocked(s *Session) {
	h.removeLocked(s)
	h.metrics.sessionsBehind.Inc()
	s.logger.Warn(s.ctx, "session fell behind",
		zap.Int64("last_sequence", s.LastSequence()),
	)
	s.markBehind()
}

func (h *Hub) markBehind(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.id] != s {
		return
	}
	h.detachBehindLocked(s)
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Session) {
	if h.sessions[s.id] != s {
		return
	}
	delete(h.sessions, s.id)
	h.metrics.sessions.Set(float64(len(h.sessions)))

	if h.closing {
		return
	}
	now := time.Now()
	h.purgeParkedLocked(now)
	h.parked[s.id] = parkedSession{sess: s, expires: now.Add(h.grace)}
}

func (h *Hub) purgeParkedLocked(now time.Time) {
	for id, p := range h.parked {
		if now.After(p.expires) {
			delete(h.parked, id)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	h.closing = true
	clear(h.parked)
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
