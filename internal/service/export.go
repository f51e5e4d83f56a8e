package service

import (
	"context"

	"feedback_service/internal/ctxdata"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
)

// ExportRecords projects the matching records into export rows, header
// first. It has no side effects.
func (s *FeedbackService) ExportRecords(ctx context.Context, filter domain.FeedbackFilter) ([][]string, error) {
	if !ctxdata.IsStaff(ctx) {
		return nil, errdefs.ErrPermissionDenied
	}

	items, err := s.repo.ListFeedback(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, append([]string(nil), domain.ExportHeader...))
	for _, item := range items {
		rows = append(rows, domain.ExportRow(item))
	}
	return rows, nil
}
