// cmd/recommender-api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"survey-recommender/internal/answers"
	"survey-recommender/internal/api"
	"survey-recommender/internal/catalog"
	"survey-recommender/internal/common/camunda"
	"survey-recommender/internal/common/config"
	"survey-recommender/internal/common/database"
	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/observability"
	"survey-recommender/internal/common/translation"
	"survey-recommender/internal/models"
	"survey-recommender/internal/recommend/partners"
	"survey-recommender/internal/recommend/plants"
	"survey-recommender/internal/rules"
	"survey-recommender/internal/tasks"

	na "survey-recommender/internal/workers/normalization/normalize-answers"
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

// normalizationRuntime is whatever runs the background pass; stop releases it.
type normalizationRuntime struct {
	dispatcher answers.Dispatcher
	stop       func(ctx context.Context)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting recommender API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("recommender-api")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
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

	if cfg.Database.Postgres.AutoMigrate {
		applied, err := database.Migrate(ctx, pg.DB)
		if err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("Schema up to date", zap.Strings("applied", applied))
	}

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	readyChecks := map[string]api.Check{
		"postgres": pg.Ping,
		"redis":    redis.Ping,
	}

	// --- Plant catalog ---
	var plantCatalog catalog.PlantCatalog = catalog.NewPostgresPlantCatalog(pg.DB)
	if cfg.Recommendation.CatalogBackend == config.CatalogElasticsearch {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		plantCatalog = catalog.NewElasticsearchPlantCatalog(esClient.Client, cfg.Recommendation.PlantIndex)
		readyChecks["elasticsearch"] = esClient.Ping
	}

	// --- Background normalization ---
	answerStore := answers.NewStore(pg.DB)
	translator := translation.NewClient(translation.Config{
		BaseURL: cfg.APIs.Translation.BaseURL,
		APIKey:  cfg.APIs.Translation.APIKey,
		Timeout: config.GetDuration(cfg.APIs.Translation.Timeout),
	}, log)
	normalizer := na.NewHandler(&na.Config{
		SourceLanguage: cfg.Normalization.SourceLanguage,
		TargetLanguage: cfg.Normalization.TargetLanguage,
	}, translator, answerStore, log)

	background, err := startNormalization(cfg, normalizer, log, zapLog)
	if err != nil {
		zapLog.Fatal("normalization dispatcher failed", zap.Error(err))
	}

	// --- Recommendation services ---
	ruleCache := rules.NewCache(rules.NewStore(pg.DB), redis.Client,
		config.GetDuration(cfg.Recommendation.RuleCacheTTL), log)

	handler := api.NewRouter(api.Config{
		Logger:    log,
		Submitter: answers.NewService(answerStore, background.dispatcher, log),
		Answers:   answerStore,
		Plants: plants.NewMatcher(plantCatalog, catalog.NewQuestionStore(pg.DB),
			cfg.Recommendation.Limit, log),
		Partners: partners.NewMatcher(ruleCache, catalog.NewPostgresPartnerCatalog(pg.DB),
			cfg.Recommendation.PartnerRuleName, cfg.Recommendation.Limit, log),
		ReadyChecks:    readyChecks,
		Observability:  obs,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		SubmitLimit:    api.RateLimit{Requests: cfg.Server.SubmitRateLimit, Window: time.Minute},
	})

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, draining...")
	case err := <-errCh:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	background.stop(shutdownCtx)

	zapLog.Info("Recommender API stopped gracefully")
}

// startNormalization wires the configured dispatcher: an in-process queue, or
// a Zeebe process instance picked up by the normalize-answers job worker.
func startNormalization(cfg *config.Config, normalizer *na.Handler, log logger.Logger, zapLog *zap.Logger) (*normalizationRuntime, error) {
	if cfg.Normalization.Dispatcher == config.DispatcherLocal {
		queue := tasks.NewQueue(cfg.Normalization.QueueSize, cfg.Normalization.Concurrency,
			func(ctx context.Context, task models.NormalizationTask) {
				normalizer.Run(ctx, task)
			}, log)
		queue.Start()
		zapLog.Info("Local normalization queue started",
			zap.Int("queueSize", cfg.Normalization.QueueSize),
			zap.Int("concurrency", cfg.Normalization.Concurrency),
		)

		return &normalizationRuntime{
			dispatcher: queue,
			stop: func(ctx context.Context) {
				if err := queue.Shutdown(ctx); err != nil {
					zapLog.Warn("normalization queue did not drain", zap.Error(err))
				}
			},
		}, nil
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		return nil, err
	}
	zapLog.Info("Zeebe client connected successfully")

	var jobWorker *camunda.CamundaWorker
	if config.IsWorkerEnabled(cfg, na.TaskType) {
		jobWorker = camunda.NewWorker(zeebe.GetClient(), na.TaskType,
			config.GetWorkerConfig(cfg, na.TaskType), normalizer, log)
	} else {
		zapLog.Info("worker disabled", zap.String("taskType", na.TaskType))
	}

	return &normalizationRuntime{
		dispatcher: camunda.NewDispatcher(zeebe, cfg.Normalization.ProcessID, log),
		stop: func(context.Context) {
			if jobWorker != nil {
				jobWorker.Stop()
			}
			if err := zeebe.Close(); err != nil {
				zapLog.Error("Error closing Zeebe client", zap.Error(err))
			}
		},
	}, nil
}
