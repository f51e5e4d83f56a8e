package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"feedback_service/internal/api"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
)

var errNotConnected = errors.New("event stream is not connected")

// Stream follows the staff event feed across reconnects. After a behind
// notice or a dropped connection it resubscribes from the last sequence it
// yielded, so consumers see every event once and in order, and resumes the
// server session so the unread set survives the reconnect.
type Stream struct {
	c         *Client
	dialer    *websocket.Dialer
	baseDelay time.Duration

	last   atomic.Int64
	unread atomic.Int64

	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string

	onUnread func(int)
}

type StreamOption func(s *Stream)

// WithUnreadHandler is called with every unread count the server reports.
func WithUnreadHandler(fn func(int)) StreamOption {
	return func(s *Stream) { s.onUnread = fn }
}

func WithReconnectDelay(d time.Duration) StreamOption {
	return func(s *Stream) { s.baseDelay = d }
}

func (c *Client) Stream(from int64, opts ...StreamOption) *Stream {
	s := &Stream{
		c:         c,
		dialer:    &websocket.Dialer{HandshakeTimeout: defaultTimeout},
		baseDelay: c.baseDelay,
	}
	s.last.Store(from)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stream) LastSequence() int64 {
	return s.last.Load()
}

func (s *Stream) Unread() int {
	return int(s.unread.Load())
}

// SessionID is the server session being followed, empty before the first
// connection.
func (s *Stream) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Stream) setUnread(count int) {
	s.unread.Store(int64(count))
	if s.onUnread != nil {
		s.onUnread(count)
	}
}

func (s *Stream) MarkRead(id int64) error {
	return s.send(api.Frame{Type: api.FrameMarkRead, SubmissionID: id})
}

func (s *Stream) MarkAllRead() error {
	return s.send(api.Frame{Type: api.FrameMarkAllRead})
}

func (s *Stream) send(frame api.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return errdefs.Transport("send frame", errNotConnected)
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(defaultTimeout))
	if err := s.conn.WriteJSON(frame); err != nil {
		return errdefs.Transport("send frame", err)
	}
	return nil
}

// Events yields change events until ctx ends or the consumer stops. A
// failed connect is yielded as a transport error; if the consumer keeps
// ranging, the stream retries with backoff. A rejected token ends the
// stream with errdefs.ErrPermissionDenied.
func (s *Stream) Events(ctx context.Context) iter.Seq2[domain.ChangeEvent, error] {
	return func(yield func(domain.ChangeEvent, error) bool) {
		failures := 0
		for ctx.Err() == nil {
			conn, err := s.dial(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, errdefs.ErrPermissionDenied) {
					yield(domain.ChangeEvent{}, err)
					return
				}
				if !yield(domain.ChangeEvent{}, err) {
					return
				}
				if !s.sleep(ctx, failures) {
					return
				}
				failures++
				continue
			}
			failures = 0

			if !s.consume(ctx, conn, yield) || !s.sleep(ctx, 0) {
				return
			}
		}
	}
}

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	base := s.c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	query := url.Values{}
	query.Set("from", strconv.FormatInt(s.last.Load(), 10))
	if id := s.SessionID(); id != "" {
		query.Set("session", id)
	}
	target := base + "/events?" + query.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.c.token)

	conn, resp, err := s.dialer.DialContext(ctx, target, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			switch {
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, errdefs.ErrPermissionDenied
			case resp.StatusCode < http.StatusInternalServerError:
				return nil, fmt.Errorf("open event stream: status %d", resp.StatusCode)
			}
		}
		return nil, errdefs.Transport("open event stream", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return conn, nil
}

// consume reads one connection until it ends. It reports false when the
// consumer asked to stop.
func (s *Stream) consume(ctx context.Context, conn *websocket.Conn, yield func(domain.ChangeEvent, error) bool) bool {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var frame api.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.c.logger.Warn(ctx, "event stream dropped, resubscribing",
					zap.Int64("from", s.last.Load()),
					zap.Error(err),
				)
			}
			return true
		}

		switch frame.Type {
		case api.FrameEvent:
			if frame.Event == nil || frame.Event.Sequence <= s.last.Load() {
				continue
			}
			s.last.Store(frame.Event.Sequence)
			if !yield(*frame.Event, nil) {
				return false
			}
		case api.FrameSession:
			s.mu.Lock()
			s.sessionID = frame.SessionID
			s.mu.Unlock()
			if frame.Count != nil {
				s.setUnread(*frame.Count)
			}
		case api.FrameUnread:
			if frame.Count != nil {
				s.setUnread(*frame.Count)
			}
		case api.FrameBehind:
			s.c.logger.Info(ctx, "event stream fell behind, resubscribing",
				zap.Int64("from", s.last.Load()),
			)
			return true
		}
	}
}

func (s *Stream) sleep(ctx context.Context, attempt int) bool {
	delay := s.baseDelay << min(attempt, 6)
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
