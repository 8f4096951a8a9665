package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"aegis/internal/config"
	"aegis/internal/constants"
	"aegis/internal/ingress"
	"aegis/internal/logger"
	"aegis/pkg/bootstrap"
	"aegis/pkg/health"
	"aegis/pkg/logging"
	"aegis/pkg/metrics"
	"aegis/pkg/middleware"
	"aegis/pkg/ratelimit"
	"aegis/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	handler        *ingress.Handler
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("publisher-service")
	}
	return &App{
		Base: bootstrap.NewBase(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitBroker("publisher-service"); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	tp, err := tracing.Init(a.Config.Tracing, "publisher-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterIngressMetrics()
	metrics.RegisterBrokerMetrics()

	a.handler = ingress.NewHandler(a.Producer, a.Config.Broker.Kafka.InputTopic, a.Logger)

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(a.Config.Ingress.AllowedOrigins))
	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("publisher-service"))
	}
	if a.Config.Ingress.RateLimit.Enabled {
		router.Use(ratelimit.RateLimitMiddleware(ratelimit.FromConfig(a.Config.Ingress.RateLimit)))
	}

	a.handler.RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, gin.H{
			"status":    h.Status,
			"timestamp": h.Timestamp.Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	readTimeout := a.Config.Server.ReadTimeoutSeconds
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := a.Config.Server.WriteTimeoutSeconds
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "publisher-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down publisher service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
