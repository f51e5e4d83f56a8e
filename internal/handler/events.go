package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"feedback_service/internal/api"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/fanout"
	"feedback_service/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type EventHub interface {
	Attach(ctx context.Context, from int64, opts ...fanout.AttachOption) (*fanout.Session, error)
}

type SequenceReader interface {
	LatestSequence(ctx context.Context) (int64, error)
}

type EventsHandler struct {
	hub      EventHub
	seq      SequenceReader
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

func NewEventsHandler(hub EventHub, seq SequenceReader, logger *logging.Logger) *EventsHandler {
	return &EventsHandler{
		hub:    hub,
		seq:    seq,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *EventsHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Get("/", h.Stream)
		r.Get("/latest", h.Latest)
	})
}

func (h *EventsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	seq, err := h.seq.LatestSequence(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SequenceResponse{Sequence: seq})
}

// Stream upgrades to a websocket and relays the session's notifications.
// Without ?from= the stream starts at the latest committed event; with
// ?session= it resumes that session's unread set.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	from, err := h.parseFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var opts []fanout.AttachOption
	if raw := r.URL.Query().Get("session"); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			writeError(w, r, h.logger, errdefs.Validation("invalid session id %q", raw))
			return
		}
		opts = append(opts, fanout.ResumeSession(raw))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	logger := logging.FromContext(ctx, h.logger)

	sess, err := h.hub.Attach(ctx, from, opts...)
	if err != nil {
		logger.Warn(ctx, "event session attach failed", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer sess.Close()

	logger = logger.With(zap.String("session_id", sess.ID()))
	logger.Info(ctx, "event stream opened", zap.Int64("from", from))

	counts := make(chan int, 16)
	go h.readLoop(ctx, cancel, conn, sess, counts)

	last := h.writeLoop(ctx, conn, sess, counts, from)
	logger.Info(ctx, "event stream closed", zap.Int64("last_sequence", last), zap.Error(sess.Err()))
}

func (h *EventsHandler) parseFrom(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("from")
	if raw == "" {
		return h.seq.LatestSequence(r.Context())
	}
	from, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || from < 0 {
		return 0, errdefs.Validation("invalid from sequence %q", raw)
	}
	return from, nil
}

// readLoop applies mark_read frames from the client. It is the only reader
// of conn; a read error ends the stream.
func (h *EventsHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *fanout.Session, counts chan<- int) {
	defer cancel()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame api.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.FromContext(ctx, h.logger).Debug(ctx, "event stream read failed", zap.Error(err))
			}
			return
		}

		var count int
		switch frame.Type {
		case api.FrameMarkRead:
			count = sess.MarkRead(frame.SubmissionID)
		case api.FrameMarkAllRead:
			sess.MarkAllRead()
		default:
			continue
		}

		select {
		case counts <- count:
		case <-ctx.Done():
			return
		}
	}
}

// writeLoop is the only writer of conn. It returns the last sequence
// written to the client.
func (h *EventsHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *fanout.Session, counts <-chan int, last int64) int64 {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(frame api.Frame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(frame)
	}
	if err := write(api.SessionFrame(sess.ID(), sess.UnreadCount())); err != nil {
		return last
	}

	deliver := func(note fanout.Notification) error {
		if err := write(api.EventFrame(note.Event)); err != nil {
			return err
		}
		last = note.Event.Sequence
		return write(api.UnreadFrame(note.Unread))
	}

	for {
		select {
		case note := <-sess.Events():
			if err := deliver(note); err != nil {
				return last
			}

		case count := <-counts:
			if err := write(api.UnreadFrame(count)); err != nil {
				return last
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return last
			}

		case <-sess.Done():
			if !errors.Is(sess.Err(), fanout.ErrBehind) {
				closeNormal(conn)
				return last
			}
			// hand over what was queued before the overflow, then tell the
			// client where to resubscribe from
			for drained := false; !drained; {
				select {
				case note := <-sess.Events():
					if err := deliver(note); err != nil {
						return last
					}
				default:
					drained = true
				}
			}
			if err := write(api.BehindFrame(last)); err != nil {
				return last
			}
			closeNormal(conn)
			return last

		case <-ctx.Done():
			return last
		}
	}
}

func closeNormal(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
