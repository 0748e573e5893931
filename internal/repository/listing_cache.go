package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	listingDomain "github.com/servicelink/service-booking/internal/domain/listing"
	"go.uber.org/zap"
)

const listingCachePrefix = "listing:"

// CachedListingLookup is a read-through Redis cache in front of another Lookup.
// Cache failures fall back to the underlying lookup.
type CachedListingLookup struct {
	next   listingDomain.Lookup
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedListingLookup wraps next with a Redis cache whose entries live for ttl.
func NewCachedListingLookup(next listingDomain.Lookup, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedListingLookup {
	return &CachedListingLookup{next: next, client: client, ttl: ttl, logger: logger}
}

// FindByID returns the cached listing or loads and caches it.
func (c *CachedListingLookup) FindByID(ctx context.Context, id int64) (*listingDomain.Listing, error) {
	key := listingCachePrefix + strconv.FormatInt(id, 10)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var l listingDomain.Listing
		if jsonErr := json.Unmarshal(raw, &l); jsonErr == nil {
			return &l, nil
		}
		c.logger.Warn("dropping unreadable listing cache entry", zap.String("key", key))
		_ = c.client.Del(ctx, key).Err()
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
	}

	l, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(l); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return l, nil
}

