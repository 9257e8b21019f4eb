package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"lexivault/application/ports"
	"lexivault/application/queries"
)

// CacheInvalidator drops cached query results covered by a scope.
type CacheInvalidator struct {
	cache  ports.Cache
	logger *zap.Logger
}

func NewCacheInvalidator(cache ports.Cache, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logger: logger}
}

func (c *CacheInvalidator) Invalidate(ctx context.Context, scope ports.InvalidationScope) error {
	if scope.Unbounded {
		c.logger.Debug("Dropping every cached relation view", zap.String("reason", scope.Reason))
		return errors.Join(
			c.cache.DeletePrefix(ctx, queries.RelatedKeyPrefix),
			c.cache.DeletePrefix(ctx, queries.RelationsKeyPrefix),
		)
	}

	var errs []error
	for _, id := range scope.WordIDs {
		if err := c.cache.DeletePrefix(ctx, queries.RelatedKeyPrefixFor(id)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range scope.UserIDs {
		if err := c.cache.Delete(ctx, queries.RelationsKeyFor(id)); err != nil {
			errs = append(errs, err)
		}
	}
	// Without owners the affected AllRelations entries are unknown.
	if len(scope.UserIDs) == 0 && len(scope.WordIDs) > 0 {
		if err := c.cache.DeletePrefix(ctx, queries.RelationsKeyPrefix); err != nil {
			errs = append(errs, err)
		}
	}

	c.logger.Debug("Cache invalidated",
		zap.String("reason", scope.Reason),
		zap.Int("words", len(scope.WordIDs)),
		zap.Int("users", len(scope.UserIDs)),
	)
	return errors.Join(errs...)
}
