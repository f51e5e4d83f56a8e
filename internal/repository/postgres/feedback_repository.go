package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"feedback_service/internal/domain"
	"feedback_service/internal/errdefs"
	"feedback_service/internal/service"
)

// changeFeedLockKey serializes event appends so that sequence order equals
// commit order; the lock is released when the transaction ends.
const changeFeedLockKey = 0x746e67 // "tng"

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type FeedbackRepository struct {
	db DB
}

func NewFeedbackRepository(db DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

const feedbackColumns = `
	id, anonymous,
	submitter_name, submitter_email, submitter_student_id, submitter_college,
	category, subject, message, status, response,
	created_at, responded_at`

type feedbackRow struct {
	ID                 int64      `db:"id"`
	Anonymous          bool       `db:"anonymous"`
	SubmitterName      *string    `db:"submitter_name"`
	SubmitterEmail     *string    `db:"submitter_email"`
	SubmitterStudentID *string    `db:"submitter_student_id"`
	SubmitterCollege   *string    `db:"submitter_college"`
	Category           string     `db:"category"`
	Subject            string     `db:"subject"`
	Message            string     `db:"message"`
	Status             string     `db:"status"`
	Response           *string    `db:"response"`
	CreatedAt          time.Time  `db:"created_at"`
	RespondedAt        *time.Time `db:"responded_at"`
}

func (r *feedbackRow) toDomain() *domain.FeedbackSubmission {
	f := &domain.FeedbackSubmission{
		ID:          r.ID,
		Category:    domain.Category(r.Category),
		Subject:     r.Subject,
		Message:     r.Message,
		Status:      domain.Status(r.Status),
		Response:    r.Response,
		CreatedAt:   r.CreatedAt.UTC(),
		RespondedAt: r.RespondedAt,
	}
	if !r.Anonymous {
		name := ""
		if r.SubmitterName != nil {
			name = *r.SubmitterName
		}
		f.Submitter = &domain.Submitter{
			Name:      name,
			Email:     r.SubmitterEmail,
			StudentID: r.SubmitterStudentID,
			College:   r.SubmitterCollege,
		}
	}
	return f
}

type eventRow struct {
	Sequence     int64     `db:"sequence"`
	SubmissionID int64     `db:"submission_id"`
	Kind         string    `db:"kind"`
	Payload      []byte    `db:"payload"`
	OccurredAt   time.Time `db:"occurred_at"`
}

func (r *eventRow) toDomain() (domain.ChangeEvent, error) {
	evt := domain.ChangeEvent{
		Sequence:     r.Sequence,
		SubmissionID: r.SubmissionID,
		Kind:         domain.EventKind(r.Kind),
		OccurredAt:   r.OccurredAt.UTC(),
	}
	if len(r.Payload) > 0 {
		if err := json.Unmarshal(r.Payload, &evt.Payload); err != nil {
			return domain.ChangeEvent{}, fmt.Errorf("decode event %d payload: %w", r.Sequence, err)
		}
	}
	return evt, nil
}

func (r *FeedbackRepository) BeginTx(ctx context.Context) (service.FeedbackRepositoryTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handleError("begin tx", err)
	}
	return &FeedbackRepositoryTx{tx: tx}, nil
}

func (r *FeedbackRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errdefs.Transport("ping", err)
	}
	return nil
}

func (r *FeedbackRepository) GetFeedback(ctx context.Context, id int64) (*domain.FeedbackSubmission, error) {
	query := `SELECT ` + feedbackColumns + `
FROM feedback_submissions
WHERE id = $1
`
	var row feedbackRow
	if err := pgxscan.Get(ctx, r.db, &row, query, id); err != nil {
		return nil, handleError("get feedback", err)
	}
	return row.toDomain(), nil
}

func (r *FeedbackRepository) ListFeedback(ctx context.Context, filter domain.FeedbackFilter) ([]*domain.FeedbackSubmission, error) {
	query, args := buildListFeedbackQuery(filter)

	var rows []*feedbackRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, handleError("list feedback", err)
	}
	out := make([]*domain.FeedbackSubmission, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FeedbackRepository) ListEvents(ctx context.Context, after int64, limit int) ([]domain.ChangeEvent, error) {
	query := `
SELECT sequence, submission_id, kind, payload, occurred_at
FROM change_events
WHERE sequence > $1
ORDER BY sequence
LIMIT $2
`
	var rows []*eventRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, after, limit); err != nil {
		return nil, handleError("list events", err)
	}
	out := make([]domain.ChangeEvent, 0, len(rows))
	for _, row := range rows {
		evt, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, nil
}

func (r *FeedbackRepository) LatestSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(sequence), 0) FROM change_events`).Scan(&seq)
	if err != nil {
		return 0, handleError("latest sequence", err)
	}
	return seq, nil
}

func buildListFeedbackQuery(filter domain.FeedbackFilter) (string, []any) {
	var where []string
	var args []any
	argIdx := 1

	if len(filter.IDs) > 0 {
		where = append(where, fmt.Sprintf("id = ANY($%d)", argIdx))
		args = append(args, filter.IDs)
		argIdx++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		where = append(where, fmt.Sprintf("status = ANY($%d)", argIdx))
		args = append(args, statuses)
		argIdx++
	}
	if len(filter.Categories) > 0 {
		categories := make([]string, 0, len(filter.Categories))
		for _, c := range filter.Categories {
			categories = append(categories, string(c))
		}
		where = append(where, fmt.Sprintf("category = ANY($%d)", argIdx))
		args = append(args, categories)
		argIdx++
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		where = append(where, fmt.Sprintf("(subject ILIKE $%d OR message ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(q)+"%")
	}

	query := `SELECT ` + feedbackColumns + `
FROM feedback_submissions`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY id DESC"
	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type FeedbackRepositoryTx struct {
	tx pgx.Tx
}

func (t *FeedbackRepositoryTx) InsertFeedback(ctx context.Context, f *domain.FeedbackSubmission) error {
	query := `
INSERT INTO feedback_submissions (
	anonymous,
	submitter_name, submitter_email, submitter_student_id, submitter_college,
	category, subject, message, status, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id
`
	var name, email, studentID, college *string
	if f.Submitter != nil {
		name = &f.Submitter.Name
		email, studentID, college = f.Submitter.Email, f.Submitter.StudentID, f.Submitter.College
	}

	var id int64
	err := t.tx.QueryRow(ctx, query,
		f.IsAnonymous(),
		name, email, studentID, college,
		string(f.Category), f.Subject, f.Message, string(f.Status), f.CreatedAt,
	).Scan(&id)
	if err != nil {
		return handleError("insert feedback", err)
	}
	f.ID = id
	return nil
}

func (t *FeedbackRepositoryTx) GetFeedbackForUpdate(ctx context.Context, id int64) (*domain.FeedbackSubmission, error) {
	query := `SELECT ` + feedbackColumns + `
FROM feedback_submissions
WHERE id = $1
FOR UPDATE
`
	var row feedbackRow
	if err := pgxscan.Get(ctx, t.tx, &row, query, id); err != nil {
		return nil, handleError("lock feedback", err)
	}
	return row.toDomain(), nil
}

func (t *FeedbackRepositoryTx) UpdateFeedback(ctx context.Context, f *domain.FeedbackSubmission) error {
	query := `
UPDATE feedback_submissions
SET status = $1, response = $2, responded_at = $3
WHERE id = $4
`
	res, err := t.tx.Exec(ctx, query, string(f.Status), f.Response, f.RespondedAt, f.ID)
	if err != nil {
		return handleError("update feedback", err)
	}
	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}
	return nil
}

func (t *FeedbackRepositoryTx) DeleteFeedback(ctx context.Context, id int64) error {
	res, err := t.tx.Exec(ctx, `DELETE FROM feedback_submissions WHERE id = $1`, id)
	if err != nil {
		return handleError("delete feedback", err)
	}
	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}
	return nil
}

func (t *FeedbackRepositoryTx) AppendEvent(ctx context.Context, evt *domain.ChangeEvent) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(changeFeedLockKey)); err != nil {
		return handleError("lock change feed", err)
	}

	query := `
INSERT INTO change_events (sequence, submission_id, kind, payload, occurred_at)
SELECT COALESCE(MAX(sequence), 0) + 1, $1, $2, $3, $4
FROM change_events
RETURNING sequence
`
	var seq int64
	err = t.tx.QueryRow(ctx, query, evt.SubmissionID, string(evt.Kind), payload, evt.OccurredAt).Scan(&seq)
	if err != nil {
		return handleError("append event", err)
	}
	evt.Sequence = seq
	return nil
}

func (t *FeedbackRepositoryTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return handleError("commit", err)
	}
	return nil
}

func (t *FeedbackRepositoryTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return handleError("rollback", err)
}
