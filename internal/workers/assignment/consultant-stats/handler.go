// internal/workers/assignment/consultant-stats/handler.go
package consultantstats

import (
	"context"
	"encoding/json"

	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/models"
	"consultant-workflow/internal/workers/events"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "consultant-stats"

	cacheKeyPrefix = "consultant:stats:"
)

// StatsReader aggregates a consultant's ledger history.
type StatsReader interface {
	GetConsultantStats(ctx context.Context, consultantID string) (*models.ConsultantStats, error)
}

type Handler struct {
	config *Config
	stats  StatsReader
	redis  redis.Cmdable
	runner *events.Runner
	logger logger.Logger
}

func NewHandler(config *Config, stats StatsReader, redis redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		stats:  stats,
		redis:  redis,
		runner: events.NewRunner(TaskType, config.Timeout, log),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		var input Input
		if err := events.Decode(job.Variables, inputSchema, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cacheKey := cacheKeyPrefix + input.ConsultantID

	if !input.SkipCache {
		if stats, ok := h.cached(ctx, cacheKey); ok {
			return &Output{Stats: *stats, Cached: true}, nil
		}
	}

	stats, err := h.stats.GetConsultantStats(ctx, input.ConsultantID)
	if err != nil {
		return nil, err
	}

	if h.redis != nil && h.config.CacheTTL > 0 {
		if data, err := json.Marshal(stats); err == nil {
			if err := h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL).Err(); err != nil {
				h.logger.Warn("failed to cache consultant stats", map[string]interface{}{
					"consultantId": input.ConsultantID,
					"error":        err.Error(),
				})
			}
		}
	}
	return &Output{Stats: *stats}, nil
}

// cached returns the stats from Redis. Misses and Redis failures both fall through
// to the ledger.
func (h *Handler) cached(ctx context.Context, key string) (*models.ConsultantStats, bool) {
	if h.redis == nil {
		return nil, false
	}
	val, err := h.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			h.logger.Warn("stats cache unavailable", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}
	var stats models.ConsultantStats
	if err := json.Unmarshal(val, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}
