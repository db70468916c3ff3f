package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kylemck03/PANW-take-home/backend/internal/config"
	"github.com/kylemck03/PANW-take-home/backend/internal/handlers"
	"github.com/kylemck03/PANW-take-home/backend/internal/logger"
	"github.com/kylemck03/PANW-take-home/backend/internal/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	log := newLogger(cfg)
	log.Info("starting insights API server",
		logger.String("env", cfg.Server.Env),
		logger.String("store", cfg.Store.Driver),
		logger.Bool("cache", cfg.Redis.URL != ""),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newRouter(a *app) *gin.Engine {
	cfg := a.cfg

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.log))
	router.Use(middleware.Metrics(a.metrics))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"env":     cfg.Server.Env,
			"store":   cfg.Store.Driver,
			"cache":   a.cache.Enabled(),
			"persist": a.results != nil,
		})
	})
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	general := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, "general")
	analysis := middleware.NewAnalysisRateLimiter()
	a.closers = append(a.closers, general.Stop, analysis.Stop)

	api := router.Group("/api")
	api.Use(general.Middleware())

	handlers.NewAnalyticsHandler(a.analysis).
		WithBounds(handlers.DayBounds{
			Default: cfg.Analysis.DefaultDays,
			Min:     cfg.Analysis.MinDays,
			Max:     cfg.Analysis.MaxDays,
		}).
		Register(api, analysis.Middleware())
	handlers.NewHealthDataHandler(a.healthData).Register(api)

	return router
}
