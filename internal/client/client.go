// Package client talks to the feedback server on behalf of a staff session.
// Client satisfies synchronizer.Remote; Stream follows the staff event feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"feedback_service/internal/api"
	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/logging"
	"feedback_service/internal/retry"
	"feedback_service/internal/service"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultAttempts    = 3
	defaultBaseDelay   = 200 * time.Millisecond
	breakerThreshold   = 5
	breakerResetWindow = 30 * time.Second
)

type Option func(c *Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetry tunes how reads are retried on transport failures. Mutations are
// never retried.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.baseDelay = baseDelay
	}
}

func WithCircuitBreaker(cb *retry.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	breaker   *retry.CircuitBreaker
	attempts  int
	baseDelay time.Duration
	logger    *logging.Logger
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		http:      &http.Client{Timeout: defaultTimeout},
		breaker:   retry.NewCircuitBreaker(breakerThreshold, breakerResetWindow),
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List loads the staff view of the records together with the sequence to
// subscribe from.
func (c *Client) List(ctx context.Context, filter domain.FeedbackFilter) (*service.FeedbackList, error) {
	path := "/feedback"
	if q := filterQuery(filter); q != "" {
		path += "?" + q
	}
	return retry.WithCircuitBreaker(ctx, c.breaker, c.attempts, c.baseDelay, func() (*service.FeedbackList, error) {
		var list service.FeedbackList
		if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
			return nil, err
		}
		return &list, nil
	})
}

func (c *Client) LatestSequence(ctx context.Context) (int64, error) {
	return retry.WithCircuitBreaker(ctx, c.breaker, c.attempts, c.baseDelay, func() (int64, error) {
		var resp api.SequenceResponse
		if err := c.do(ctx, http.MethodGet, "/events/latest", nil, &resp); err != nil {
			return 0, err
		}
		return resp.Sequence, nil
	})
}

func (c *Client) ChangeStatus(ctx context.Context, id int64, target domain.Status) (*domain.FeedbackSubmission, error) {
	var f domain.FeedbackSubmission
	path := fmt.Sprintf("/feedback/%d/status", id)
	if err := c.mutate(ctx, http.MethodPatch, path, api.StatusRequest{Status: target}, &f); err != nil {
		return nil, withID(err, id)
	}
	return &f, nil
}

func (c *Client) AttachResponse(ctx context.Context, id int64, text string) (*domain.FeedbackSubmission, error) {
	var f domain.FeedbackSubmission
	path := fmt.Sprintf("/feedback/%d/response", id)
	if err := c.mutate(ctx, http.MethodPut, path, api.ResponseRequest{Response: text}, &f); err != nil {
		return nil, withID(err, id)
	}
	return &f, nil
}

func (c *Client) DeleteFeedback(ctx context.Context, id int64) error {
	return c.mutate(ctx, http.MethodDelete, fmt.Sprintf("/feedback/%d", id), nil, nil)
}

func (c *Client) BulkChangeStatus(ctx context.Context, ids []int64, target domain.Status) (*service.BulkResult, error) {
	var resp api.BulkResponse
	if err := c.mutate(ctx, http.MethodPost, "/feedback/bulk/status", api.BulkStatusRequest{IDs: ids, Status: target}, &resp); err != nil {
		return nil, err
	}
	return resp.Result(), nil
}

func (c *Client) BulkDelete(ctx context.Context, ids []int64) (*service.BulkResult, error) {
	var resp api.BulkResponse
	if err := c.mutate(ctx, http.MethodPost, "/feedback/bulk/delete", api.BulkDeleteRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return resp.Result(), nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body, out any) error {
	return c.breaker.Execute(func() error {
		return c.do(ctx, method, path, body, out)
	})
}

// do performs one request. A request that never got an answer is a
// transport error; an error response is decoded back into the errdefs
// taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "request failed", zap.String("op", op), zap.Error(err))
		return errdefs.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errdefs.Transport(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Kind == "" {
		if resp.StatusCode == http.StatusUnauthorized {
			return errdefs.ErrPermissionDenied
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return errdefs.Transport(op, fmt.Errorf("status %d", resp.StatusCode))
		}
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
	return body.Err()
}

func withID(err error, id int64) error {
	var transition *errdefs.InvalidTransitionError
	if errors.As(err, &transition) {
		transition.ID = id
	}
	return err
}

func filterQuery(filter domain.FeedbackFilter) string {
	q := url.Values{}
	for _, id := range filter.IDs {
		q.Add("id", strconv.FormatInt(id, 10))
	}
	for _, s := range filter.Statuses {
		q.Add("status", string(s))
	}
	for _, cat := range filter.Categories {
		q.Add("category", string(cat))
	}
	if filter.Search != "" {
		q.Set("q", filter.Search)
	}
	return q.Encode()
}
