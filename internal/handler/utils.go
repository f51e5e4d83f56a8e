package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"feedback_service/internal/api"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/logging"
)

const maxBodyBytes = 1 << 20

var ErrBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the response. Server-side failures are logged;
// caller mistakes are not.
func writeError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	statusCode, body := api.FromError(err)
	if statusCode >= http.StatusInternalServerError {
		ctx := r.Context()
		logging.FromContext(ctx, logger).Error(ctx, "request failed",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err),
		)
	}
	writeJSON(w, statusCode, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errdefs.Validation("invalid request body: %v", err)
	}
	return nil
}

func parsePathParam(r *http.Request, key string) (string, error) {
	val := chi.URLParam(r, key)
	if val == "" {
		return "", fmt.Errorf("%w: missing path param: %s", ErrBadRequest, key)
	}
	return val, nil
}

func parseID(r *http.Request) (int64, error) {
	raw, err := parsePathParam(r, "id")
	if err != nil {
		return 0, errdefs.Validation("%v", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errdefs.Validation("invalid feedback id %q", raw)
	}
	return id, nil
}

// queryList accepts both repeated parameters and comma separated values.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseFilter(r *http.Request) (domain.FeedbackFilter, error) {
	var filter domain.FeedbackFilter
	for _, raw := range queryList(r, "id") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errdefs.Validation("invalid feedback id %q", raw)
		}
		filter.IDs = append(filter.IDs, id)
	}
	for _, raw := range queryList(r, "status") {
		status := domain.Status(raw)
		if !status.IsValid() {
			return filter, errdefs.Validation("unknown status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range queryList(r, "category") {
		category := domain.Category(strings.ToLower(raw))
		if !category.IsValid() {
			return filter, errdefs.Validation("unknown category %q", raw)
		}
		filter.Categories = append(filter.Categories, category)
	}
	filter.Search = strings.TrimSpace(r.URL.Query().Get("q"))
	return filter, nil
}
