package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"feedback_service/internal/auth"
	"feedback_service/internal/auth/mocks"
	"feedback_service/internal/errdefs"
)

func TestRedisAuthorizer(t *testing.T) {
	ctx := context.Background()

	t.Run("KnownSession", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rdb := mocks.NewMocksessionReader(ctrl)
		rdb.EXPECT().Get(gomock.Any(), "staff_session:abc").Return(redis.NewStringResult("staff-7", nil))

		staffID, err := auth.NewRedisAuthorizer(rdb).Authorize(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "staff-7", staffID)
	})

	t.Run("MissingSession", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rdb := mocks.NewMocksessionReader(ctrl)
		rdb.EXPECT().Get(gomock.Any(), "staff_session:gone").Return(redis.NewStringResult("", redis.Nil))

		_, err := auth.NewRedisAuthorizer(rdb).Authorize(ctx, "gone")
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("RedisDown", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rdb := mocks.NewMocksessionReader(ctrl)
		rdb.EXPECT().Get(gomock.Any(), gomock.Any()).Return(redis.NewStringResult("", errors.New("dial tcp: refused")))

		_, err := auth.NewRedisAuthorizer(rdb).Authorize(ctx, "abc")
		assert.ErrorIs(t, err, errdefs.ErrTransport)
	})

	t.Run("EmptyTokenSkipsLookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rdb := mocks.NewMocksessionReader(ctrl)

		_, err := auth.NewRedisAuthorizer(rdb).Authorize(ctx, "")
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestStaticAuthorizer(t *testing.T) {
	a := auth.ParseStaticTokens(" dev-token:alice, bare ,,")
	assert.Equal(t, 2, a.Len())

	staffID, err := a.Authorize(context.Background(), "dev-token")
	require.NoError(t, err)
	assert.Equal(t, "alice", staffID)

	staffID, err = a.Authorize(context.Background(), "bare")
	require.NoError(t, err)
	assert.Equal(t, "bare", staffID)

	_, err = a.Authorize(context.Background(), "other")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("FallsThroughToSecond", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		first := mocks.NewMockAuthorizer(ctrl)
		first.EXPECT().Authorize(gomock.Any(), "tok").Return("", auth.ErrUnauthenticated)

		chain := auth.Chain{first, auth.ParseStaticTokens("tok:bob")}
		staffID, err := chain.Authorize(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "bob", staffID)
	})

	t.Run("LookupFailureWinsOverRejection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		first := mocks.NewMockAuthorizer(ctrl)
		first.EXPECT().Authorize(gomock.Any(), "tok").Return("", errdefs.Transport("lookup", errors.New("timeout")))

		chain := auth.Chain{first, auth.ParseStaticTokens("")}
		_, err := chain.Authorize(ctx, "tok")
		assert.ErrorIs(t, err, errdefs.ErrTransport)
	})

	t.Run("AllReject", func(t *testing.T) {
		_, err := auth.Chain{auth.ParseStaticTokens("a")}.Authorize(ctx, "b")
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}
