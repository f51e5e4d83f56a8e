package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"feedback_service/internal/api"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/logging"
	"feedback_service/internal/service"
)

type FeedbackService interface {
	SubmitFeedback(ctx context.Context, input *domain.SubmitInput) (*domain.FeedbackSubmission, error)
	QueryByTrackingCode(ctx context.Context, code string) (*domain.PublicFeedbackView, error)
	GetFeedback(ctx context.Context, id int64) (*domain.FeedbackSubmission, error)
	ListFeedback(ctx context.Context, filter domain.FeedbackFilter) (*service.FeedbackList, error)
	ChangeStatus(ctx context.Context, id int64, target domain.Status) (*domain.FeedbackSubmission, error)
	AttachResponse(ctx context.Context, id int64, text string) (*domain.FeedbackSubmission, error)
	DeleteFeedback(ctx context.Context, id int64) error
	BulkChangeStatus(ctx context.Context, ids []int64, target domain.Status) (*service.BulkResult, error)
	BulkDelete(ctx context.Context, ids []int64) (*service.BulkResult, error)
	ExportRecords(ctx context.Context, filter domain.FeedbackFilter) ([][]string, error)
	LatestSequence(ctx context.Context) (int64, error)
}

type FeedbackHandler struct {
	svc    FeedbackService
	logger *logging.Logger
	now    func() time.Time
}

func NewFeedbackHandler(svc FeedbackService, logger *logging.Logger) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, logger: logger, now: time.Now}
}

// RegisterRoutes mounts the public submission and tracking endpoints and,
// behind authMiddleware, the staff endpoints.
func (h *FeedbackHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/", h.Submit)
	r.Get("/track/{code}", h.Track)

	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/export", h.Export)
		r.Post("/bulk/status", h.BulkChangeStatus)
		r.Post("/bulk/delete", h.BulkDelete)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}/status", h.ChangeStatus)
		r.Put("/{id}/response", h.AttachResponse)
		r.Delete("/{id}", h.Delete)
	})
}

type submitResponse struct {
	ID           int64         `json:"id"`
	TrackingCode string        `json:"tracking_code"`
	Status       domain.Status `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in domain.SubmitInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	f, err := h.svc.SubmitFeedback(r.Context(), &in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		ID:           f.ID,
		TrackingCode: f.TrackingCode(),
		Status:       f.Status,
		CreatedAt:    f.CreatedAt,
	})
}

func (h *FeedbackHandler) Track(w http.ResponseWriter, r *http.Request) {
	code, err := parsePathParam(r, "code")
	if err != nil {
		writeError(w, r, h.logger, errdefs.Validation("%v", err))
		return
	}

	view, err := h.svc.QueryByTrackingCode(r.Context(), code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.svc.ListFeedback(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if list.Items == nil {
		list.Items = []*domain.FeedbackSubmission{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *FeedbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	f, err := h.svc.GetFeedback(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FeedbackHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req api.StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	f, err := h.svc.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FeedbackHandler) AttachResponse(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req api.ResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	f, err := h.svc.AttachResponse(r.Context(), id, req.Response)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FeedbackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.svc.DeleteFeedback(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FeedbackHandler) BulkChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req api.BulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.BulkChangeStatus(r.Context(), req.IDs, req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewBulkResponse(res))
}

func (h *FeedbackHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req api.BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.NewBulkResponse(res))
}

// Export streams the filtered records as CSV.
func (h *FeedbackHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rows, err := h.svc.ExportRecords(ctx, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filename := fmt.Sprintf("feedback-export-%s.csv", h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		logging.FromContext(ctx, h.logger).Error(ctx, "export write failed", zap.Error(err))
	}
}
