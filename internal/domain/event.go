package domain

import "time"

type EventKind string

const (
	EventCreated          EventKind = "created"
	EventStatusChanged    EventKind = "statusChanged"
	EventResponseAttached EventKind = "responseAttached"
	EventDeleted          EventKind = "deleted"
)

func (k EventKind) IsValid() bool {
	switch k {
	case EventCreated, EventStatusChanged, EventResponseAttached, EventDeleted:
		return true
	default:
		return false
	}
}

// EventPayload carries the full record after the mutation. Deleted events
// carry no record.
type EventPayload struct {
	Submission     *FeedbackSubmission `json:"submission,omitempty"`
	PreviousStatus Status              `json:"previous_status,omitempty"`
}

// ChangeEvent is an immutable fact appended to the change feed. Sequence is
// strictly increasing per store and is the catch-up and de-duplication key.
type ChangeEvent struct {
	Sequence     int64        `json:"sequence"`
	SubmissionID int64        `json:"submission_id"`
	Kind         EventKind    `json:"kind"`
	Payload      EventPayload `json:"payload"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

func NewCreatedEvent(f *FeedbackSubmission, at time.Time) ChangeEvent {
	return ChangeEvent{
		SubmissionID: f.ID,
		Kind:         EventCreated,
		Payload:      EventPayload{Submission: f.Clone()},
		OccurredAt:   at,
	}
}

func NewStatusChangedEvent(f *FeedbackSubmission, previous Status, at time.Time) ChangeEvent {
	return ChangeEvent{
		SubmissionID: f.ID,
		Kind:         EventStatusChanged,
		Payload:      EventPayload{Submission: f.Clone(), PreviousStatus: previous},
		OccurredAt:   at,
	}
}

func NewResponseAttachedEvent(f *FeedbackSubmission, previous Status, at time.Time) ChangeEvent {
	return ChangeEvent{
		SubmissionID: f.ID,
		Kind:         EventResponseAttached,
		Payload:      EventPayload{Submission: f.Clone(), PreviousStatus: previous},
		OccurredAt:   at,
	}
}

func NewDeletedEvent(id int64, at time.Time) ChangeEvent {
	return ChangeEvent{
		SubmissionID: id,
		Kind:         EventDeleted,
		OccurredAt:   at,
	}
}
