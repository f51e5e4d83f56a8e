package domain

import "time"

// PublicFeedbackView is what an unauthenticated tracking lookup may see. It
// has no submitter fields at all, named or anonymous.
type PublicFeedbackView struct {
	TrackingCode  string     `json:"tracking_code"`
	Status        Status     `json:"status"`
	Category      Category   `json:"category"`
	Subject       string     `json:"subject"`
	Message       string     `json:"message"`
	Response      *string    `json:"response"`
	CreatedAt     time.Time  `json:"created_at"`
	RespondedAt   *time.Time `json:"responded_at"`
}

// NewPublicView projects a record for the tracking page. Submitter identity
// never leaves this function, whatever the row holds.
func NewPublicView(f *FeedbackSubmission) *PublicFeedbackView {
	view := &PublicFeedbackView{
		TrackingCode: f.TrackingCode(),
		Status:       f.Status,
		Category:     f.Category,
		Subject:      f.Subject,
		Message:      f.Message,
		Response:     cloneString(f.Response),
		CreatedAt:    f.CreatedAt,
	}
	if f.RespondedAt != nil {
		t := *f.RespondedAt
		view.RespondedAt = &t
	}
	return view
}

var ExportHeader = []string{
	"Reference Code", "Date", "Submitter", "Category", "Subject", "Message", "Status", "Response",
}

// ExportRow flattens a record into the columns of ExportHeader.
func ExportRow(f *FeedbackSubmission) []string {
	submitter := "Anonymous"
	if !f.IsAnonymous() {
		submitter = f.Submitter.Name
		if f.Submitter.Email != nil {
			submitter += " <" + *f.Submitter.Email + ">"
		}
	}
	response := ""
	if f.Response != nil {
		response = *f.Response
	}
	return []string{
		f.TrackingCode(),
		f.CreatedAt.UTC().Format("2006-01-02 15:04"),
		submitter,
		string(f.Category),
		f.Subject,
		f.Message,
		string(f.Status),
		response,
	}
}
