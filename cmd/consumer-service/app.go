package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"aegis/internal/config"
	"aegis/internal/constants"
	"aegis/internal/dlp"
	"aegis/internal/logger"
	"aegis/internal/pipeline"
	"aegis/internal/redact"
	"aegis/internal/signal"
	"aegis/internal/sink"
	"aegis/pkg/bootstrap"
	"aegis/pkg/circuitbreaker"
	"aegis/pkg/health"
	"aegis/pkg/logging"
	"aegis/pkg/metrics"
	"aegis/pkg/migrations"
	"aegis/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	mongoClient    *mongo.Client
	pgDB           *sql.DB
	redisClient    *redis.Client
	writer         sink.Writer
	processor      *pipeline.Processor
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("consumer-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initPipeline(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if err := a.InitBroker("consumer-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "consumer-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterPipelineMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	switch a.Config.Sink.Type {
	case constants.SinkTypeMongoDB:
		client, err := a.dbConnector.InitMongoDB(ctx)
		if err != nil {
			return err
		}
		a.mongoClient = client

		db := client.Database(a.Config.Database.MongoDB.Database)
		if err := migrations.EnsureMongoCollections(ctx, db, a.Config.Sink); err != nil {
			return fmt.Errorf("failed to prepare mongodb collections: %w", err)
		}
	case constants.SinkTypePostgreSQL:
		db, err := a.dbConnector.InitPostgreSQL(ctx)
		if err != nil {
			return err
		}
		a.pgDB = db

		if a.Config.Database.Postgres.RunMigrations {
			if err := migrations.RunPostgres(db); err != nil {
				return fmt.Errorf("failed to run postgres migrations: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown sink type: %s", a.Config.Sink.Type)
	}

	if a.Config.Redaction.Cache.Enabled {
		rdb, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redisClient = rdb
	}

	return nil
}

func (a *App) initPipeline(ctx context.Context) error {
	var mongoDB *mongo.Database
	if a.mongoClient != nil {
		mongoDB = a.mongoClient.Database(a.Config.Database.MongoDB.Database)
	}

	writer, err := sink.NewWriter(a.Config.Sink, mongoDB, a.pgDB)
	if err != nil {
		return err
	}
	a.writer = sink.NewRetryingWriter(writer, a.Config.Sink.Retry, a.Logger)

	var deidentifier dlp.Deidentifier = dlp.NewClient(a.Config.Redaction)
	if a.Config.CircuitBreaker.Enabled {
		cbCfg := circuitbreaker.DefaultConfig("dlp")
		if a.Config.CircuitBreaker.MaxRequests > 0 {
			cbCfg.MaxRequests = a.Config.CircuitBreaker.MaxRequests
		}
		if a.Config.CircuitBreaker.Interval > 0 {
			cbCfg.Interval = a.Config.CircuitBreaker.Interval
		}
		if a.Config.CircuitBreaker.Timeout > 0 {
			cbCfg.Timeout = a.Config.CircuitBreaker.Timeout
		}
		deidentifier = dlp.NewCircuitBreakerClient(deidentifier, "dlp", cbCfg)
	}

	var cache redact.ResultCache
	if a.redisClient != nil {
		cache = redact.NewRedisCache(a.redisClient, a.Config.Redaction.Cache.TTLSeconds, a.Logger)
	}

	recorder := metrics.NewPrometheusRecorder()
	parser := signal.NewParser(recorder)
	redactor := redact.NewService(deidentifier, a.Config.Redaction, cache, recorder, a.Logger)

	a.processor = pipeline.NewProcessor(parser, redactor, a.writer, a.Logger)
	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}
	if a.pgDB != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.pgDB))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	inputTopic := a.Config.Broker.Kafka.InputTopic
	g.Go(func() error {
		return a.Consumer.Consume(gCtx, inputTopic, a.processor.Handle)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "consumer-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down consumer service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			srvCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(srvCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.pgDB, a.mongoClient)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
