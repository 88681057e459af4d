package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"accreditdocs/internal/model"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func approvedRequest() *model.AccessRequest {
	by := int64(1)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return &model.AccessRequest{
		ID:          "req-1",
		DocumentID:  "doc-42",
		RequesterID: 7,
		Status:      model.StatusApproved,
		Reason:      "need for audit",
		ResolvedBy:  &by,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStatusCache_PutAndGet(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	c := NewStatusCache(rdb, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := c.GetApproved(ctx, "doc-42", 7)
	assert.False(t, ok)

	c.PutApproved(ctx, approvedRequest())

	got, ok := c.GetApproved(ctx, "doc-42", 7)
	require.True(t, ok)
	assert.Equal(t, approvedRequest(), got)
	assert.Equal(t, time.Minute, mr.TTL("access:approved:doc-42:7"))

	mr.FastForward(2 * time.Minute)
	_, ok = c.GetApproved(ctx, "doc-42", 7)
	assert.False(t, ok)
}

func TestStatusCache_IgnoresNonApproved(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	c := NewStatusCache(rdb, time.Minute, zap.NewNop())

	for _, s := range []model.RequestStatus{model.StatusPending, model.StatusRejected} {
		req := approvedRequest()
		req.Status = s
		c.PutApproved(context.Background(), req)
	}
	c.PutApproved(context.Background(), nil)

	assert.Empty(t, mr.Keys())
}

func TestStatusCache_MalformedEntryIsDropped(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	c := NewStatusCache(rdb, time.Minute, zap.NewNop())

	require.NoError(t, mr.Set("access:approved:doc-42:7", `{"status":"pending"}`))

	_, ok := c.GetApproved(context.Background(), "doc-42", 7)
	assert.False(t, ok)
	assert.False(t, mr.Exists("access:approved:doc-42:7"))
}

func TestStatusCache_RedisErrorsAreMisses(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := NewStatusCache(rdb, time.Minute, zap.NewNop())

	mock.ExpectGet("access:approved:doc-42:7").SetErr(errors.New("connection refused"))

	_, ok := c.GetApproved(context.Background(), "doc-42", 7)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusCache_SetFailureIsSwallowed(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	c := NewStatusCache(rdb, time.Minute, zap.NewNop())

	mr.SetError("READONLY You can't write against a read only replica.")
	assert.NotPanics(t, func() { c.PutApproved(context.Background(), approvedRequest()) })
	mr.SetError("")
	assert.Empty(t, mr.Keys())
}

func TestStatusCache_Nil(t *testing.T) {
	c := NewStatusCache(nil, time.Minute, zap.NewNop())
	assert.Nil(t, c)

	_, ok := c.GetApproved(context.Background(), "doc-42", 7)
	assert.False(t, ok)
	assert.NotPanics(t, func() { c.PutApproved(context.Background(), approvedRequest()) })
}
