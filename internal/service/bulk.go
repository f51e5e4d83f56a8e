package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feedback_service/internal/ctxdata"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
)

type BulkFailure struct {
	ID  int64 `json:"id"`
	Err error `json:"-"`
}

// BulkResult lists per-item outcomes in the order the ids were given.
type BulkResult struct {
	Succeeded []int64       `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

func (r *BulkResult) HasFailures() bool {
	return len(r.Failed) > 0
}

// BulkChangeStatus moves every id to target independently. One invalid
// transition does not stop the others; only an unreachable store fails the
// whole batch.
func (s *FeedbackService) BulkChangeStatus(ctx context.Context, ids []int64, target domain.Status) (*BulkResult, error) {
	if !target.IsValid() {
		return nil, errdefs.Validation("unknown status %q", target)
	}
	return s.bulk(ctx, ids, "status", func(ctx context.Context, id int64) error {
		_, err := s.ChangeStatus(ctx, id, target)
		return err
	})
}

func (s *FeedbackService) BulkDelete(ctx context.Context, ids []int64) (*BulkResult, error) {
	return s.bulk(ctx, ids, "delete", s.DeleteFeedback)
}

func (s *FeedbackService) bulk(ctx context.Context, ids []int64, op string, fn func(context.Context, int64) error) (*BulkResult, error) {
	if !ctxdata.IsStaff(ctx) {
		return nil, errdefs.ErrPermissionDenied
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return &BulkResult{Succeeded: []int64{}, Failed: []BulkFailure{}}, nil
	}
	if err := s.repo.Ping(ctx); err != nil {
		return nil, errdefs.Transport("bulk "+op, err)
	}

	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			var err error
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = errdefs.Transport("bulk "+op, ctxErr)
			} else {
				err = fn(ctx, id)
			}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	result := &BulkResult{Succeeded: []int64{}, Failed: []BulkFailure{}}
	for i, id := range ids {
		if errs[i] != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Err: errs[i]})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	if result.HasFailures() {
		s.log(ctx).Warn(ctx, "bulk operation partially failed",
			zap.String("op", op),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
			zap.Error(errors.Join(failureErrors(result.Failed)...)),
		)
	}
	return result, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func failureErrors(failed []BulkFailure) []error {
	errs := make([]error, 0, len(failed))
	for _, f := range failed {
		errs = append(errs, f.Err)
	}
	return errs
}
