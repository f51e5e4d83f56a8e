// Package api holds the JSON shapes exchanged over HTTP and the staff event
// stream, shared by the server handlers and the staff client.
package api

import (
	"errors"
	"net/http"
	"strings"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/service"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindNotFound          ErrorKind = "not_found"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindUnauthenticated   ErrorKind = "unauthenticated"
	KindTransport         ErrorKind = "transport"
	KindInternal          ErrorKind = "internal"
)

type ErrorResponse struct {
	Error           string    `json:"error"`
	Kind            ErrorKind `json:"kind,omitempty"`
	CurrentStatus   string    `json:"current_status,omitempty"`
	AttemptedStatus string    `json:"attempted_status,omitempty"`
	Retryable       bool      `json:"retryable,omitempty"`
}

// FromError classifies err and returns the HTTP status and body for it.
// Internal errors are not echoed to the caller.
func FromError(err error) (int, ErrorResponse) {
	var transition *errdefs.InvalidTransitionError
	switch {
	case errors.As(err, &transition):
		return http.StatusConflict, ErrorResponse{
			Error:           err.Error(),
			Kind:            KindInvalidTransition,
			CurrentStatus:   transition.From,
			AttemptedStatus: transition.To,
		}
	case errors.Is(err, errdefs.ErrValidation):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: KindValidation}
	case errors.Is(err, errdefs.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: errdefs.ErrNotFound.Error(), Kind: KindNotFound}
	case errors.Is(err, errdefs.ErrPermissionDenied):
		return http.StatusForbidden, ErrorResponse{Error: errdefs.ErrPermissionDenied.Error(), Kind: KindPermissionDenied}
	case errors.Is(err, errdefs.ErrTransport):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:     "service temporarily unavailable, refresh and retry",
			Kind:      KindTransport,
			Retryable: true,
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: http.StatusText(http.StatusInternalServerError),
			Kind:  KindInternal,
		}
	}
}

// Err rebuilds an error that matches the same errdefs sentinel the server
// classified.
func (e ErrorResponse) Err() error {
	switch e.Kind {
	case KindInvalidTransition:
		return &errdefs.InvalidTransitionError{From: e.CurrentStatus, To: e.AttemptedStatus}
	case KindValidation:
		return errdefs.Validation("%s", strings.TrimPrefix(e.Error, errdefs.ErrValidation.Error()+": "))
	case KindNotFound:
		return errdefs.ErrNotFound
	case KindPermissionDenied, KindUnauthenticated:
		return errdefs.ErrPermissionDenied
	case KindTransport:
		return errdefs.Transport("remote", errors.New(e.Error))
	default:
		return errors.New(e.Error)
	}
}

type StatusRequest struct {
	Status domain.Status `json:"status"`
}

type ResponseRequest struct {
	Response string `json:"response"`
}

type BulkStatusRequest struct {
	IDs    []int64       `json:"ids"`
	Status domain.Status `json:"status"`
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

type BulkFailure struct {
	ID int64 `json:"id"`
	ErrorResponse
}

type BulkResponse struct {
	Succeeded []int64       `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

func NewBulkResponse(res *service.BulkResult) BulkResponse {
	out := BulkResponse{Succeeded: res.Succeeded, Failed: make([]BulkFailure, 0, len(res.Failed))}
	if out.Succeeded == nil {
		out.Succeeded = []int64{}
	}
	for _, f := range res.Failed {
		_, body := FromError(f.Err)
		out.Failed = append(out.Failed, BulkFailure{ID: f.ID, ErrorResponse: body})
	}
	return out
}

func (r BulkResponse) Result() *service.BulkResult {
	res := &service.BulkResult{Succeeded: r.Succeeded, Failed: make([]service.BulkFailure, 0, len(r.Failed))}
	if res.Succeeded == nil {
		res.Succeeded = []int64{}
	}
	for _, f := range r.Failed {
		err := f.Err()
		var transition *errdefs.InvalidTransitionError
		if errors.As(err, &transition) {
			transition.ID = f.ID
		}
		res.Failed = append(res.Failed, service.BulkFailure{ID: f.ID, Err: err})
	}
	return res
}

type SequenceResponse struct {
	Sequence int64 `json:"sequence"`
}

type FrameType string

const (
	FrameSession     FrameType = "session"
	FrameEvent       FrameType = "event"
	FrameUnread      FrameType = "unread"
	FrameBehind      FrameType = "behind"
	FrameMarkRead    FrameType = "mark_read"
	FrameMarkAllRead FrameType = "mark_all_read"
)

// Frame is one websocket message in either direction.
type Frame struct {
	Type         FrameType           `json:"type"`
	Event        *domain.ChangeEvent `json:"event,omitempty"`
	Count        *int                `json:"count,omitempty"`
	LastSequence *int64              `json:"last_sequence,omitempty"`
	SubmissionID int64               `json:"submission_id,omitempty"`
	SessionID    string              `json:"session_id,omitempty"`
}

// SessionFrame opens every stream: the id to resume with and the unread
// count carried over.
func SessionFrame(id string, unread int) Frame {
	return Frame{Type: FrameSession, SessionID: id, Count: &unread}
}

func EventFrame(evt domain.ChangeEvent) Frame {
	return Frame{Type: FrameEvent, Event: &evt}
}

func UnreadFrame(count int) Frame {
	return Frame{Type: FrameUnread, Count: &count}
}

func BehindFrame(last int64) Frame {
	return Frame{Type: FrameBehind, LastSequence: &last}
}
