//go:generate mockgen -source=auth.go -destination=mocks/auth_mock.go -package=mocks

// Package auth answers whether a session token belongs to staff. Sessions
// are issued by the sign-in collaborator; this package only reads them.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"feedback_service/internal/errdefs"
)

const sessionKeyPrefix = "staff_session:"

var ErrUnauthenticated = errors.New("unknown or expired staff session")

// Authorizer resolves a session token to a staff id. It returns
// ErrUnauthenticated for tokens it does not recognise.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (string, error)
}

type sessionReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisAuthorizer looks tokens up under staff_session:<token>; the value is
// the staff id.
type RedisAuthorizer struct {
	rdb sessionReader
}

func NewRedisAuthorizer(rdb sessionReader) *RedisAuthorizer {
	return &RedisAuthorizer{rdb: rdb}
}

func (a *RedisAuthorizer) Authorize(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	staffID, err := a.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", errdefs.Transport("staff session lookup", err)
	}
	if staffID == "" {
		return "", ErrUnauthenticated
	}
	return staffID, nil
}

// StaticAuthorizer accepts a fixed token set, for development and tests.
type StaticAuthorizer struct {
	tokens map[string]string
}

// ParseStaticTokens reads "token:staff,token2:staff2". A token without a
// staff part maps to the token itself.
func ParseStaticTokens(raw string) *StaticAuthorizer {
	tokens := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		token, staffID, found := strings.Cut(part, ":")
		if !found || staffID == "" {
			staffID = token
		}
		tokens[token] = staffID
	}
	return &StaticAuthorizer{tokens: tokens}
}

func (a *StaticAuthorizer) Len() int {
	return len(a.tokens)
}

func (a *StaticAuthorizer) Authorize(_ context.Context, token string) (string, error) {
	staffID, ok := a.tokens[token]
	if !ok || token == "" {
		return "", ErrUnauthenticated
	}
	return staffID, nil
}

// Chain asks each authorizer in turn. A token is rejected only when every
// authorizer rejected it; otherwise the last lookup failure is returned.
type Chain []Authorizer

func (c Chain) Authorize(ctx context.Context, token string) (string, error) {
	var lastErr error
	for _, a := range c {
		staffID, err := a.Authorize(ctx, token)
		if err == nil {
			return staffID, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrUnauthenticated
}
