package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"accreditdocs/internal/model"
)

const approvedKeyPrefix = "access:approved"

// StatusCache remembers approved access requests per (document, requester) pair.
//
// Only approved records are stored. Approval is terminal and never revoked, so a cached entry
// can never disagree with the ledger; pending and rejected records always come from the database.
// A nil *StatusCache is valid and caches nothing.
type StatusCache struct {
	rdb redis.Cmdable
	ttl time.Duration
	log *zap.Logger
}

// NewStatusCache returns nil when rdb is nil.
func NewStatusCache(rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) *StatusCache {
	if rdb == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusCache{rdb: rdb, ttl: ttl, log: log.With(zap.String("component", "status_cache"))}
}

func approvedKey(documentID string, requesterID int64) string {
	return fmt.Sprintf("%s:%s:%d", approvedKeyPrefix, documentID, requesterID)
}

// GetApproved returns the cached approval for the pair. Redis failures are logged and reported as a miss.
func (c *StatusCache) GetApproved(ctx context.Context, documentID string, requesterID int64) (*model.AccessRequest, bool) {
	if c == nil {
		return nil, false
	}
	key := approvedKey(documentID, requesterID)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var req model.AccessRequest
	if err := json.Unmarshal(b, &req); err != nil || !req.IsApproved() {
		c.log.Warn("discarding malformed cache entry", zap.String("key", key), zap.Error(err))
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}
	return &req, true
}

// PutApproved stores req if it is approved and ignores every other status.
func (c *StatusCache) PutApproved(ctx context.Context, req *model.AccessRequest) {
	if c == nil || !req.IsApproved() {
		return
	}
	b, err := json.Marshal(req)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("request_id", req.ID), zap.Error(err))
		return
	}
	key := approvedKey(req.DocumentID, req.RequesterID)
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
