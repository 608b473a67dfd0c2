// internal/workers/assignment/consultant-stats/cache.go
package consultantstats

import (
	"context"

	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheInvalidator drops a consultant's cached stats whenever the ledger writes one of
// their records, so loadPercentage is recomputed after every assign and unassign.
type CacheInvalidator struct {
	redis  redis.Cmdable
	logger logger.Logger
}

func NewCacheInvalidator(redis redis.Cmdable, log logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (c *CacheInvalidator) OnLedgerChange(ctx context.Context, record models.AssignmentRecord) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKeyPrefix+record.ConsultantID).Err(); err != nil {
		// the TTL still bounds how stale the entry can get
		c.logger.Warn("failed to invalidate consultant stats", map[string]interface{}{
			"consultantId": record.ConsultantID,
			"error":        err.Error(),
		})
	}
}
