package service

import (
	"context"
	"errors"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
)

// QueryByTrackingCode answers the public tracking page. It needs no staff
// capability and always returns the public projection, even to staff.
func (s *FeedbackService) QueryByTrackingCode(ctx context.Context, code string) (*domain.PublicFeedbackView, error) {
	id, _, err := domain.ParseTrackingCode(code)
	if err != nil {
		return nil, errdefs.ErrNotFound
	}

	if s.cache != nil {
		if view, ok := s.cache.Get(ctx, id); ok && view.TrackingCode == code {
			return view, nil
		}
	}

	feedback, err := s.repo.GetFeedback(ctx, id)
	if err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			return nil, errdefs.ErrNotFound
		}
		return nil, err
	}

	// the id alone would match; the date segment must agree as well
	if feedback.TrackingCode() != code {
		return nil, errdefs.ErrNotFound
	}

	view := domain.NewPublicView(feedback)
	if s.cache != nil {
		s.cache.Fill(ctx, id, view)
	}
	return view, nil
}
