// cmd/admin-console/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mealsub-admin/internal/audit"
	"mealsub-admin/internal/catalog"
	"mealsub-admin/internal/catalog/customersearch"
	"mealsub-admin/internal/common/config"
	"mealsub-admin/internal/common/database"
	stderrors "mealsub-admin/internal/common/errors"
	"mealsub-admin/internal/common/httpx"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/notify"
	"mealsub-admin/internal/session"
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

// writeError renders any error as a structured JSON body. Retryable
// failures map to 502 so callers know a retry may succeed.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if stderrors.IsRetryable(err) {
		status = http.StatusBadGateway
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(stderrors.Normalize(err))
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

	zapLog.Info("Starting admin console...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	// --- Init Redis with retry (draft persistence + catalog cache) ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry (submission audit log, optional) ---
	var auditStore *audit.Store
	if cfg.Database.Postgres.Host != "" {
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
		auditStore = audit.NewStore(pg.DB)
		zapLog.Info("PostgreSQL connected successfully")
	} else {
		zapLog.Warn("postgres not configured, submission audit log disabled")
	}

	// --- Init Elasticsearch with retry (customer autocomplete, optional) ---
	var searcher *customersearch.Searcher
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		searcher = customersearch.NewSearcher(esClient, cfg.Database.Elasticsearch.CustomerIndex, 10, log)
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Warn("elasticsearch not configured, customer autocomplete disabled")
	}

	// --- Backend catalog client ---
	catalogClient := catalog.NewHTTPClient(
		httpx.NewClient(config.GetDuration(cfg.Backend.Timeout), cfg.Backend.APIKey),
		cfg.Backend.BaseURL,
		redis,
		time.Duration(cfg.Backend.CacheTTL)*time.Second,
		catalog.TaxSettings{
			Active:                 cfg.Pricing.TaxActive,
			IncludedInPrice:        cfg.Pricing.TaxIncludedInPrice,
			Percent:                cfg.Pricing.TaxPercent,
			RecomputeAfterDiscount: cfg.Pricing.RecomputeAfterDiscount,
		},
		log,
	)

	// --- Post-submission notifications ---
	notifier, err := notify.New(cfg.Notifications, log)
	if err != nil {
		zapLog.Fatal("notifier init failed", zap.Error(err))
	}

	manager := session.NewManager(redis, catalogClient, cfg, auditStore, notifier, log)
	zapLog.Info("Wizard engine wired and ready")

	// --- Health/Metrics/Debug server ---
	go func() {
		http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// UI-facing autocomplete for the customer step.
		http.HandleFunc("/api/customers/search", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if searcher == nil {
				json.NewEncoder(w).Encode([]customersearch.Hit{})
				return
			}
			hits, err := searcher.Search(r.Context(), r.URL.Query().Get("q"))
			if err != nil {
				writeError(w, err)
				return
			}
			json.NewEncoder(w).Encode(hits)
		})

		// Ops view of a persisted draft by session id.
		http.HandleFunc("/api/drafts", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			sess, err := manager.Open(r.Context(), r.URL.Query().Get("session"))
			if err != nil {
				writeError(w, err)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"sessionId":   sess.ID,
				"currentStep": sess.Controller().CurrentStep(),
				"formData":    sess.Store().Snapshot(),
			})
		})

		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping admin console...")
	zapLog.Info("Admin console stopped gracefully")
}
