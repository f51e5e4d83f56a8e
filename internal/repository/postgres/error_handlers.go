package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"feedback_service/internal/errdefs"
)

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err)
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// isTransport reports failures of the connection rather than of the statement:
// network errors, timeouts, and Postgres connection/shutdown classes.
func isTransport(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}

func handleError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return errdefs.ErrNotFound
	case isCheckViolation(err):
		return errdefs.Validation("%s: %v", op, err)
	case isTransport(err):
		return errdefs.Transport(op, err)
	default:
		return fmt.Errorf("repository error: %s: %w", op, err)
	}
}
