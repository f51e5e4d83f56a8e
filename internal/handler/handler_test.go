package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback_service/internal/api"
	"feedback_service/internal/auth"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/fanout"
	"feedback_service/internal/feed"
	"feedback_service/internal/logging"
	"feedback_service/internal/middleware"
	"feedback_service/internal/repository/memory"
	"feedback_service/internal/service"
)

const staffToken = "tok-1"

type testServer struct {
	*httptest.Server
	repo *memory.Repository
	svc  *service.FeedbackService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logging.NewNop()
	repo := memory.New()
	f := feed.New(repo, feed.WithPollInterval(20*time.Millisecond))
	svc := service.NewFeedbackService(repo, f, service.WithChangeSubscriber(f))

	hub := fanout.NewHub(f, fanout.Config{QueueSize: 16, Registerer: prometheus.NewRegistry()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()

	authMiddleware := middleware.NewAuthMiddleware(auth.ParseStaticTokens(staffToken + ":alice"))
	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Route("/feedback", func(r chi.Router) {
		NewFeedbackHandler(svc, logger).RegisterRoutes(r, authMiddleware)
	})
	r.Route("/events", func(r chi.Router) {
		NewEventsHandler(hub, svc, logger).RegisterRoutes(r, authMiddleware)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})
	return &testServer{Server: srv, repo: repo, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body any, staff bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if staff {
		req.Header.Set("Authorization", "Bearer "+staffToken)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) submit(t *testing.T, in domain.SubmitInput) submitResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/feedback", in, false)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[submitResponse](t, resp)
}

var anonymousInput = domain.SubmitInput{
	Anonymous: true,
	Name:      "Should Vanish",
	Category:  domain.CategoryFacilities,
	Subject:   "Broken heater",
	Message:   "Room 204 is freezing",
}

func TestSubmitAndTrack(t *testing.T) {
	srv := newTestServer(t)

	created := srv.submit(t, anonymousInput)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.True(t, strings.HasPrefix(created.TrackingCode, "TNG-"))

	resp := srv.do(t, http.MethodGet, "/feedback/track/"+created.TrackingCode, nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, created.TrackingCode, raw["tracking_code"])
	assert.Equal(t, "pending", raw["status"])
	assert.NotContains(t, raw, "submitter_name")
	assert.NotContains(t, raw, "id")
}

func TestSubmit_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodPost, "/feedback", domain.SubmitInput{Category: domain.CategoryOther, Message: "m"}, false)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, api.KindValidation, body.Kind)
}

func TestTrack_UnknownCode(t *testing.T) {
	srv := newTestServer(t)
	created := srv.submit(t, anonymousInput)

	for _, code := range []string{"TNG-20000101-1", "garbage", strings.Replace(created.TrackingCode, "TNG", "XYZ", 1)} {
		resp := srv.do(t, http.MethodGet, "/feedback/track/"+code, nil, false)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, code)
	}
}

func TestStaffRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t)
	created := srv.submit(t, anonymousInput)

	resp := srv.do(t, http.MethodGet, "/feedback", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodPatch, "/feedback/1/status", api.StatusRequest{Status: domain.StatusResolved}, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	f, err := srv.repo.GetFeedback(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, f.Status)
}

func TestListAndGet(t *testing.T) {
	srv := newTestServer(t)
	srv.submit(t, anonymousInput)
	srv.submit(t, domain.SubmitInput{
		Name:     "Ana",
		Email:    "ana@uni.edu",
		Category: domain.CategoryAcademic,
		Subject:  "Library hours",
		Message:  "Open later please",
	})

	resp := srv.do(t, http.MethodGet, "/feedback?category=academic", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[service.FeedbackList](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Library hours", list.Items[0].Subject)
	assert.Equal(t, int64(2), list.Sequence)

	resp = srv.do(t, http.MethodGet, "/feedback/2", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.FeedbackSubmission](t, resp)
	require.NotNil(t, got.Submitter)
	assert.Equal(t, "Ana", got.Submitter.Name)

	resp = srv.do(t, http.MethodGet, "/feedback/99", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/feedback?status=bogus", nil, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangeStatus(t *testing.T) {
	srv := newTestServer(t)
	created := srv.submit(t, anonymousInput)

	resp := srv.do(t, http.MethodPatch, "/feedback/1/status", api.StatusRequest{Status: domain.StatusResolved}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.FeedbackSubmission](t, resp)
	assert.Equal(t, domain.StatusResolved, got.Status)

	resp = srv.do(t, http.MethodPatch, "/feedback/1/status", api.StatusRequest{Status: domain.StatusPending}, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, api.KindInvalidTransition, body.Kind)
	assert.Equal(t, "resolved", body.CurrentStatus)
	assert.Equal(t, "pending", body.AttemptedStatus)

	resp = srv.do(t, http.MethodGet, "/feedback/track/"+created.TrackingCode, nil, false)
	view := decodeBody[domain.PublicFeedbackView](t, resp)
	assert.Equal(t, domain.StatusResolved, view.Status)
}

func TestAttachResponse(t *testing.T) {
	srv := newTestServer(t)
	created := srv.submit(t, anonymousInput)

	resp := srv.do(t, http.MethodPut, "/feedback/1/response", api.ResponseRequest{Response: "  "}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodPut, "/feedback/1/response", api.ResponseRequest{Response: "Technician booked"}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/feedback/track/"+created.TrackingCode, nil, false)
	view := decodeBody[domain.PublicFeedbackView](t, resp)
	assert.Equal(t, domain.StatusResponded, view.Status)
	require.NotNil(t, view.Response)
	assert.Equal(t, "Technician booked", *view.Response)
}

func TestDelete(t *testing.T) {
	srv := newTestServer(t)
	created := srv.submit(t, anonymousInput)

	resp := srv.do(t, http.MethodDelete, "/feedback/1", nil, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, "/feedback/1", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/feedback/track/"+created.TrackingCode, nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, "/feedback/abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBulkChangeStatus_PartialFailure(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		srv.submit(t, anonymousInput)
	}
	resp := srv.do(t, http.MethodPatch, "/feedback/2/status", api.StatusRequest{Status: domain.StatusResolved}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/feedback/bulk/status",
		api.BulkStatusRequest{IDs: []int64{1, 2, 3, 42}, Status: domain.StatusInProgress}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[api.BulkResponse](t, resp)
	assert.Equal(t, []int64{1, 3}, body.Succeeded)
	require.Len(t, body.Failed, 2)
	assert.Equal(t, int64(2), body.Failed[0].ID)
	assert.Equal(t, api.KindInvalidTransition, body.Failed[0].Kind)
	assert.Equal(t, int64(42), body.Failed[1].ID)
	assert.Equal(t, api.KindNotFound, body.Failed[1].Kind)

	res := body.Result()
	assert.ErrorIs(t, res.Failed[0].Err, errdefs.ErrInvalidTransition)
	assert.ErrorIs(t, res.Failed[1].Err, errdefs.ErrNotFound)
}

func TestBulkDelete(t *testing.T) {
	srv := newTestServer(t)
	srv.submit(t, anonymousInput)
	srv.submit(t, anonymousInput)

	resp := srv.do(t, http.MethodPost, "/feedback/bulk/delete", api.BulkDeleteRequest{IDs: []int64{1, 2, 2}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.BulkResponse](t, resp)
	assert.Equal(t, []int64{1, 2}, body.Succeeded)
	assert.Empty(t, body.Failed)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	srv.submit(t, anonymousInput)
	srv.submit(t, domain.SubmitInput{
		Name:     "Ana",
		Email:    "ana@uni.edu",
		Category: domain.CategoryAcademic,
		Subject:  "Quotes, \"commas\"",
		Message:  "line one\nline two",
	})

	resp := srv.do(t, http.MethodGet, "/feedback/export", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "feedback-export-")

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, domain.ExportHeader, records[0])
	assert.Equal(t, "Ana <ana@uni.edu>", records[1][2])
	assert.Equal(t, "Quotes, \"commas\"", records[1][4])
	assert.Equal(t, "line one\nline two", records[1][5])
	assert.Equal(t, "Anonymous", records[2][2])
}

func TestLatestSequence(t *testing.T) {
	srv := newTestServer(t)
	srv.submit(t, anonymousInput)

	resp := srv.do(t, http.MethodGet, "/events/latest", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.SequenceResponse](t, resp)
	assert.Equal(t, int64(1), body.Sequence)
}

func dialEvents(t *testing.T, srv *testServer, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?token=" + staffToken + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) api.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame api.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestEventStream_DeliversAndMarksRead(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv, "")

	frame := readFrame(t, conn)
	require.Equal(t, api.FrameSession, frame.Type)
	assert.NotEmpty(t, frame.SessionID)
	require.NotNil(t, frame.Count)
	assert.Zero(t, *frame.Count)

	created := srv.submit(t, anonymousInput)

	frame = readFrame(t, conn)
	require.Equal(t, api.FrameEvent, frame.Type)
	require.NotNil(t, frame.Event)
	assert.Equal(t, int64(1), frame.Event.Sequence)
	assert.Equal(t, domain.EventCreated, frame.Event.Kind)
	assert.Equal(t, created.ID, frame.Event.SubmissionID)

	frame = readFrame(t, conn)
	require.Equal(t, api.FrameUnread, frame.Type)
	require.NotNil(t, frame.Count)
	assert.Equal(t, 1, *frame.Count)

	require.NoError(t, conn.WriteJSON(api.Frame{Type: api.FrameMarkRead, SubmissionID: created.ID}))
	frame = readFrame(t, conn)
	require.Equal(t, api.FrameUnread, frame.Type)
	assert.Equal(t, 0, *frame.Count)
}

func TestEventStream_ResumesFromSequence(t *testing.T) {
	srv := newTestServer(t)
	srv.submit(t, anonymousInput)
	srv.submit(t, anonymousInput)
	srv.submit(t, anonymousInput)

	conn := dialEvents(t, srv, "&from=1")

	var seqs []int64
	for len(seqs) < 2 {
		frame := readFrame(t, conn)
		if frame.Type == api.FrameEvent {
			seqs = append(seqs, frame.Event.Sequence)
		}
	}
	assert.Equal(t, []int64{2, 3}, seqs)
}

func TestEventStream_ResumedSessionKeepsUnread(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv, "&from=0")
	opened := readFrame(t, conn)
	require.Equal(t, api.FrameSession, opened.Type)

	srv.submit(t, anonymousInput)
	srv.submit(t, anonymousInput)
	var unread int
	for events := 0; events < 2 || unread < 2; {
		frame := readFrame(t, conn)
		switch frame.Type {
		case api.FrameEvent:
			events++
		case api.FrameUnread:
			unread = *frame.Count
		}
	}
	require.NoError(t, conn.Close())

	conn = dialEvents(t, srv, "&from=2&session="+opened.SessionID)
	frame := readFrame(t, conn)
	require.Equal(t, api.FrameSession, frame.Type)
	assert.Equal(t, opened.SessionID, frame.SessionID)
	require.NotNil(t, frame.Count)
	assert.Equal(t, 2, *frame.Count)

	srv.submit(t, anonymousInput)
	frame = readFrame(t, conn)
	require.Equal(t, api.FrameEvent, frame.Type)
	assert.Equal(t, int64(3), frame.Event.Sequence)
	frame = readFrame(t, conn)
	require.Equal(t, api.FrameUnread, frame.Type)
	assert.Equal(t, 3, *frame.Count)
}

func TestEventStream_RejectsBadFrom(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/events?from=-3", nil, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/events?session=not-a-session", nil, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParseFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/feedback?status=pending,resolved&category=Academic&id=3&id=4&q=+heater+", nil)
	filter, err := parseFilter(r)
	require.NoError(t, err)
	assert.Equal(t, []domain.Status{domain.StatusPending, domain.StatusResolved}, filter.Statuses)
	assert.Equal(t, []domain.Category{domain.CategoryAcademic}, filter.Categories)
	assert.Equal(t, []int64{3, 4}, filter.IDs)
	assert.Equal(t, "heater", filter.Search)

	_, err = parseFilter(httptest.NewRequest(http.MethodGet, "/feedback?id=x", nil))
	assert.ErrorIs(t, err, errdefs.ErrValidation)
}

func TestTrack_MissingCode(t *testing.T) {
	h := NewFeedbackHandler(nil, logging.NewNop())
	w := httptest.NewRecorder()
	h.Track(w, httptest.NewRequest(http.MethodGet, "/feedback/track/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, api.KindValidation, body.Kind)
	assert.Contains(t, body.Error, "code")
}

func TestTrack_NamedSubmitterStaysPrivate(t *testing.T) {
	srv := newTestServer(t)
	created := srv.submit(t, domain.SubmitInput{
		Name:      "Ana Cruz",
		Email:     "ana@campus.edu",
		StudentID: "2021-0042",
		Category:  domain.CategorySafety,
		Subject:   "Harassment",
		Message:   "confidential",
	})

	resp := srv.do(t, http.MethodGet, "/feedback/track/"+created.TrackingCode, nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "Harassment")
	for _, secret := range []string{"Ana Cruz", "ana@campus.edu", "2021-0042", "submitter"} {
		assert.NotContains(t, body, secret)
	}
}
