package domain_test

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
)

func TestWorkflow(t *testing.T) {
	tests := []struct {
		from, to domain.Status
		want     bool
	}{
		{domain.StatusPending, domain.StatusInProgress, true},
		{domain.StatusPending, domain.StatusResponded, true},
		{domain.StatusPending, domain.StatusResolved, true},
		{domain.StatusPending, domain.StatusPending, false},
		{domain.StatusInProgress, domain.StatusResponded, true},
		{domain.StatusInProgress, domain.StatusResolved, true},
		{domain.StatusInProgress, domain.StatusPending, false},
		{domain.StatusResponded, domain.StatusResolved, true},
		{domain.StatusResponded, domain.StatusInProgress, false},
		{domain.StatusResponded, domain.StatusPending, false},
		{domain.StatusResolved, domain.StatusPending, false},
		{domain.StatusResolved, domain.StatusInProgress, false},
		{domain.StatusResolved, domain.StatusResponded, false},
		{domain.StatusResolved, domain.StatusResolved, false},
		{domain.StatusPending, domain.Status("archived"), false},
	}

	wf := domain.NewWorkflow(false)
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, wf.CanTransition(tt.from, tt.to))
		})
	}

	t.Run("zero value uses default table", func(t *testing.T) {
		var zero domain.Workflow
		assert.True(t, zero.CanTransition(domain.StatusPending, domain.StatusResponded))
	})

	t.Run("strict removes shortcuts", func(t *testing.T) {
		strict := domain.NewWorkflow(true)
		assert.True(t, strict.CanTransition(domain.StatusPending, domain.StatusInProgress))
		assert.False(t, strict.CanTransition(domain.StatusPending, domain.StatusResponded))
		assert.False(t, strict.CanTransition(domain.StatusPending, domain.StatusResolved))
		assert.Empty(t, strict.Allowed(domain.StatusResolved))
	})
}

func TestTrackingCode(t *testing.T) {
	createdAt := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

	t.Run("formats UTC date", func(t *testing.T) {
		assert.Equal(t, "TNG-20260310-42", domain.AllocateTrackingCode(42, createdAt))
	})

	t.Run("round trip", func(t *testing.T) {
		code := domain.AllocateTrackingCode(1234, createdAt)
		id, date, err := domain.ParseTrackingCode(code)
		require.NoError(t, err)
		assert.Equal(t, int64(1234), id)
		assert.Equal(t, "2026-03-10", date.Format("2006-01-02"))
	})

	t.Run("same date distinct ids", func(t *testing.T) {
		assert.NotEqual(t, domain.AllocateTrackingCode(1, createdAt), domain.AllocateTrackingCode(11, createdAt))
	})

	for _, code := range []string{
		"", "TNG", "TNG-20260310", "ABC-20260310-1", "TNG-2026031-1", "TNG-20261310-1",
		"TNG-20260310-0", "TNG-20260310-x", "TNG-20260310-007", "TNG-20260310--1", "tng-20260310-1",
	} {
		t.Run("rejects "+code, func(t *testing.T) {
			_, _, err := domain.ParseTrackingCode(code)
			assert.ErrorIs(t, err, domain.ErrMalformedTrackingCode)
		})
	}
}

func TestSubmitInputValidate(t *testing.T) {
	valid := func() domain.SubmitInput {
		return domain.SubmitInput{
			Name:     "Ana Cruz",
			Email:    "ana@campus.edu",
			Category: domain.CategoryFacilities,
			Subject:  "Broken elevator",
			Message:  "Elevator in building 3 stuck",
		}
	}

	tests := []struct {
		name    string
		mutate  func(in *domain.SubmitInput)
		wantErr bool
	}{
		{"valid named", func(in *domain.SubmitInput) {}, false},
		{"valid anonymous", func(in *domain.SubmitInput) { in.Anonymous = true; in.Name = "" }, false},
		{"blank subject", func(in *domain.SubmitInput) { in.Subject = "   " }, true},
		{"blank message", func(in *domain.SubmitInput) { in.Message = "" }, true},
		{"unknown category", func(in *domain.SubmitInput) { in.Category = "sports" }, true},
		{"category case folded", func(in *domain.SubmitInput) { in.Category = " Student-Services " }, false},
		{"named without name", func(in *domain.SubmitInput) { in.Name = "" }, true},
		{"bad email", func(in *domain.SubmitInput) { in.Email = "not-an-email" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			in.Normalize()
			err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, errdefs.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("anonymous drops identity", func(t *testing.T) {
		in := valid()
		in.Anonymous = true
		in.Normalize()
		assert.Empty(t, in.Name)
		assert.Empty(t, in.Email)
		assert.Nil(t, in.Submitter())
	})
}

func TestAttachResponse(t *testing.T) {
	created := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	f := &domain.FeedbackSubmission{ID: 1, Status: domain.StatusPending, CreatedAt: created}

	first := created.Add(time.Hour)
	f.AttachResponse("We are on it", first)
	assert.Equal(t, domain.StatusResponded, f.Status)
	require.NotNil(t, f.RespondedAt)
	assert.Equal(t, first, *f.RespondedAt)

	f.AttachResponse("Fixed", first.Add(time.Hour))
	assert.Equal(t, "Fixed", *f.Response)
	assert.Equal(t, first, *f.RespondedAt)

	resolved := &domain.FeedbackSubmission{ID: 2, Status: domain.StatusResolved, CreatedAt: created}
	resolved.AttachResponse("late note", created.Add(-time.Minute))
	assert.Equal(t, domain.StatusResolved, resolved.Status)
	assert.Equal(t, created, *resolved.RespondedAt)
}

func TestClone(t *testing.T) {
	email := "a@b.c"
	resp := "ok"
	now := time.Now()
	f := &domain.FeedbackSubmission{
		ID:          3,
		Submitter:   &domain.Submitter{Name: "A", Email: &email},
		Response:    &resp,
		RespondedAt: &now,
	}

	c := f.Clone()
	require.Equal(t, f, c)

	*c.Submitter.Email = "changed"
	*c.Response = "changed"
	assert.Equal(t, "a@b.c", *f.Submitter.Email)
	assert.Equal(t, "ok", *f.Response)
}

func TestMarshalIncludesTrackingCode(t *testing.T) {
	f := domain.FeedbackSubmission{
		ID:        9,
		Category:  domain.CategoryPolicy,
		Status:    domain.StatusPending,
		CreatedAt: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tracking_code":"TNG-20261018-9"`)

	var decoded domain.FeedbackSubmission
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, f.ID, decoded.ID)
	assert.True(t, f.CreatedAt.Equal(decoded.CreatedAt))
}

func TestPublicView(t *testing.T) {
	email := "ana@campus.edu"
	named := &domain.FeedbackSubmission{
		ID:        5,
		Submitter: &domain.Submitter{Name: "Ana", Email: &email},
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}
	anonymous := &domain.FeedbackSubmission{ID: 6, Status: domain.StatusPending, CreatedAt: time.Now()}

	for _, f := range []*domain.FeedbackSubmission{named, anonymous} {
		view := domain.NewPublicView(f)
		data, err := json.Marshal(view)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "submitter")
		assert.NotContains(t, string(data), "Ana")
		assert.NotContains(t, string(data), email)
	}

	view := domain.NewPublicView(anonymous)
	assert.Nil(t, view.Response)
	assert.Regexp(t, regexp.MustCompile(`^TNG-\d{8}-6$`), view.TrackingCode)
}

func TestExportRow(t *testing.T) {
	email := "ana@campus.edu"
	resp := "Done"
	created := time.Date(2026, 4, 1, 9, 15, 0, 0, time.UTC)

	row := domain.ExportRow(&domain.FeedbackSubmission{
		ID:        12,
		Submitter: &domain.Submitter{Name: "Ana", Email: &email},
		Category:  domain.CategorySafety,
		Subject:   "Lights",
		Message:   "Parking lot is dark",
		Status:    domain.StatusResolved,
		Response:  &resp,
		CreatedAt: created,
	})
	assert.Equal(t, []string{
		"TNG-20260401-12", "2026-04-01 09:15", "Ana <ana@campus.edu>", "safety",
		"Lights", "Parking lot is dark", "resolved", "Done",
	}, row)
	assert.Len(t, domain.ExportHeader, len(row))

	row = domain.ExportRow(&domain.FeedbackSubmission{ID: 13, CreatedAt: created})
	assert.Equal(t, "Anonymous", row[2])
	assert.Equal(t, "", row[7])
}
