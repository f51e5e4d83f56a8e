package domain

import (
	"encoding/json"
	"net/mail"
	"slices"
	"strings"
	"time"

	"feedback_service/internal/errdefs"
)

type Submitter struct {
	Name      string  `json:"name"`
	Email     *string `json:"email,omitempty"`
	StudentID *string `json:"student_id,omitempty"`
	College   *string `json:"college,omitempty"`
}

// FeedbackSubmission is the authoritative record. A nil Submitter means the
// submission was made anonymously.
type FeedbackSubmission struct {
	ID          int64      `json:"id"`
	Submitter   *Submitter `json:"submitter,omitempty"`
	Category    Category   `json:"category"`
	Subject     string     `json:"subject"`
	Message     string     `json:"message"`
	Status      Status     `json:"status"`
	Response    *string    `json:"response,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func (f *FeedbackSubmission) IsAnonymous() bool {
	return f.Submitter == nil
}

func (f *FeedbackSubmission) TrackingCode() string {
	return AllocateTrackingCode(f.ID, f.CreatedAt)
}

// Clone returns a deep copy that shares no pointers with f.
func (f *FeedbackSubmission) Clone() *FeedbackSubmission {
	if f == nil {
		return nil
	}
	c := *f
	if f.Submitter != nil {
		s := *f.Submitter
		s.Email = cloneString(f.Submitter.Email)
		s.StudentID = cloneString(f.Submitter.StudentID)
		s.College = cloneString(f.Submitter.College)
		c.Submitter = &s
	}
	c.Response = cloneString(f.Response)
	if f.RespondedAt != nil {
		t := *f.RespondedAt
		c.RespondedAt = &t
	}
	return &c
}

// AttachResponse overwrites the response text, stamps RespondedAt the first
// time and moves an unanswered record to responded.
func (f *FeedbackSubmission) AttachResponse(text string, at time.Time) {
	f.Response = &text
	if f.RespondedAt == nil {
		t := at
		if t.Before(f.CreatedAt) {
			t = f.CreatedAt
		}
		f.RespondedAt = &t
	}
	if f.Status == StatusPending || f.Status == StatusInProgress {
		f.Status = StatusResponded
	}
}

func (f FeedbackSubmission) MarshalJSON() ([]byte, error) {
	type alias FeedbackSubmission
	return json.Marshal(struct {
		alias
		TrackingCode string `json:"tracking_code"`
	}{alias(f), f.TrackingCode()})
}

type SubmitInput struct {
	Anonymous bool     `json:"anonymous"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	StudentID string   `json:"student_id"`
	College   string   `json:"college"`
	Category  Category `json:"category"`
	Subject   string   `json:"subject"`
	Message   string   `json:"message"`
}

// Normalize trims free text and drops identity fields from anonymous input.
func (in *SubmitInput) Normalize() {
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.Category = Category(strings.ToLower(strings.TrimSpace(string(in.Category))))
	if in.Anonymous {
		in.Name, in.Email, in.StudentID, in.College = "", "", "", ""
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.College = strings.TrimSpace(in.College)
}

func (in *SubmitInput) Validate() error {
	if in.Subject == "" {
		return errdefs.Validation("subject is required")
	}
	if in.Message == "" {
		return errdefs.Validation("message is required")
	}
	if !in.Category.IsValid() {
		return errdefs.Validation("unknown category %q", in.Category)
	}
	if in.Anonymous {
		return nil
	}
	if in.Name == "" {
		return errdefs.Validation("name is required unless submitting anonymously")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return errdefs.Validation("invalid email %q", in.Email)
		}
	}
	return nil
}

// Submitter returns the identity to persist, nil for anonymous input.
func (in *SubmitInput) Submitter() *Submitter {
	if in.Anonymous {
		return nil
	}
	return &Submitter{
		Name:      in.Name,
		Email:     optional(in.Email),
		StudentID: optional(in.StudentID),
		College:   optional(in.College),
	}
}

type FeedbackFilter struct {
	IDs        []int64
	Statuses   []Status
	Categories []Category
	Search     string
}

func (f FeedbackFilter) Matches(s *FeedbackSubmission) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, s.ID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, s.Status) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, s.Category) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(s.Subject), q) && !strings.Contains(strings.ToLower(s.Message), q) {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
