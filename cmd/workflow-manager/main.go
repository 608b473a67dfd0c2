// cmd/workflow-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"consultant-workflow/internal/assignment"
	awsclients "consultant-workflow/internal/common/aws"
	"consultant-workflow/internal/common/camunda"
	"consultant-workflow/internal/common/config"
	"consultant-workflow/internal/common/database"
	"consultant-workflow/internal/common/logger"
	"consultant-workflow/internal/common/observability"
	"consultant-workflow/internal/notification"
	"consultant-workflow/internal/reporting"
	"consultant-workflow/internal/workflow"
	"consultant-workflow/pkg/registry"

	asc "consultant-workflow/internal/workers/application/application-status-changed"
	asub "consultant-workflow/internal/workers/application/application-submitted"
	cma "consultant-workflow/internal/workers/assignment/consultant-manual-assign"
	cst "consultant-workflow/internal/workers/assignment/consultant-stats"
	cun "consultant-workflow/internal/workers/assignment/consultant-unassign"
	drv "consultant-workflow/internal/workers/room/document-reviewed"
	dup "consultant-workflow/internal/workers/room/document-uploaded"
	mp "consultant-workflow/internal/workers/room/message-posted"
	rpo "consultant-workflow/internal/workers/room/room-priority-override"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting workflow manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, cfg.App.Version)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis (capacity guard, stats cache) ---
	var cache redis.Cmdable
	var rdb *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		cache = rdb.Client
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch (reporting) ---
	var assignmentObservers []assignment.LedgerObserver
	var roomObservers []workflow.RoomObserver
	if cfg.Reporting.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer := reporting.NewIndexer(es.Client, cfg.Reporting, log)
		assignmentObservers = append(assignmentObservers, indexer)
		roomObservers = append(roomObservers, indexer)
		zapLog.Info("Elasticsearch connected successfully")
	}
	if cache != nil {
		assignmentObservers = append(assignmentObservers, cst.NewCacheInvalidator(cache, log))
	}

	// --- Notifications ---
	templates, err := registry.LoadOrDefault(cfg.Notifications.TemplatePath)
	if err != nil {
		zapLog.Fatal("notification templates failed to load", zap.Error(err))
	}

	resolver := notification.NewPostgresResolver(pg.DB)
	notificationStore := notification.NewPostgresStore(pg.DB)

	var channels []notification.Channel
	if cfg.Notifications.Email.Enabled || cfg.Notifications.Push.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.Endpoint)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			channels = append(channels, notification.NewEmailChannel(
				awsclients.NewSESClient(awsCfg), resolver, cfg.Notifications.Email.FromEmail))
		}
		if cfg.Notifications.Push.Enabled {
			channels = append(channels, notification.NewPushChannel(
				awsclients.NewSNSClient(awsCfg), cfg.Notifications.Push.TopicARN))
		}
	}

	fanout := notification.NewFanout(resolver, notificationStore, templates, log,
		notification.WithChannels(channels...))

	var publisher notification.Publisher = fanout
	var dispatcher *notification.Dispatcher
	if cfg.Notifications.Async {
		dispatcher = notification.NewDispatcher(fanout, config.GetDuration(cfg.Notifications.DispatchTimeout), log)
		publisher = dispatcher
	}

	// --- Domain ---
	guard := assignment.CapacityGuard(assignment.NoopGuard{})
	if cfg.Assignment.CapacityGuard == config.CapacityGuardRedisLock {
		guard = assignment.NewRedisCapacityGuard(cache,
			config.GetDuration(cfg.Assignment.LockTTL),
			config.GetDuration(cfg.Assignment.LockWait),
			log)
	}

	assigner := assignment.NewCoordinator(assignment.NewPostgresStore(pg.DB), log,
		assignment.WithCapacityGuard(guard),
		assignment.WithObservers(assignmentObservers...),
	)
	rooms := workflow.NewCoordinator(workflow.NewPostgresStore(pg.DB),
		workflow.PolicyFromConfig(cfg.Rooms), publisher, log,
		workflow.WithRoomObservers(roomObservers...),
	)
	engine := workflow.NewEngine(assigner, rooms, cfg.Rooms.SystemActorID, log)

	// --- Workers ---
	client := zeebe.GetClient()
	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.JobHandler) {
		w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, log)
		if w != nil {
			workers = append(workers, w)
		}
	}

	start(asub.TaskType, asub.NewHandler(asub.LoadConfig(), engine, log).Handle)
	start(asc.TaskType, asc.NewHandler(asc.LoadConfig(), rooms, log).Handle)
	start(mp.TaskType, mp.NewHandler(mp.LoadConfig(), rooms, log).Handle)
	start(dup.TaskType, dup.NewHandler(dup.LoadConfig(), rooms, log).Handle)
	start(drv.TaskType, drv.NewHandler(drv.LoadConfig(), rooms, log).Handle)
	start(rpo.TaskType, rpo.NewHandler(rpo.LoadConfig(), rooms, log).Handle)
	start(cma.TaskType, cma.NewHandler(cma.LoadConfig(), engine, log).Handle)
	start(cun.TaskType, cun.NewHandler(cun.LoadConfig(), engine, log).Handle)
	start(cst.TaskType, cst.NewHandler(cst.LoadConfig(), assigner, cache, log).Handle)
	zapLog.Info("Workers registered", zap.Int("running", len(workers)))

	// --- Health, metrics and inbox ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status, code := "ready", http.StatusOK
		if err := pg.Ping(r.Context()); err != nil {
			status, code = "postgres unavailable", http.StatusServiceUnavailable
		} else if err := zeebe.HealthCheck(r.Context()); err != nil {
			status, code = "zeebe unavailable", http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	notification.NewInboxHandler(notification.NewInbox(notificationStore), log).Register(mux)

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if dispatcher != nil {
		dispatcher.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Workflow manager stopped gracefully")
}
