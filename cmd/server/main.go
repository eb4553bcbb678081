package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teambuilder/internal/app"
	"teambuilder/internal/config"
	"teambuilder/internal/handlers"
	"teambuilder/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize dependencies")
	}
	defer a.Close()

	m := a.Metrics
	if !cfg.Metrics.Enabled {
		m = nil
	}

	router := routes.NewRouter(routes.RouterConfig{
		AllowedOrigins: cfg.Security.CORSAllowedOrigins,
		MetricsPath:    cfg.Metrics.Path,
	}, routes.Handlers{
		User:   handlers.NewUserHandler(a.User),
		Team:   handlers.NewTeamHandler(a.Team),
		Health: handlers.NewHealthHandler(cfg.App.Version, a.HealthChecks()),
	}, a.Identities, logger, m)

	if len(cfg.Security.TrustedProxies) > 0 {
		if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			logger.WithError(err).Fatal("Invalid trusted proxies")
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}

	// let a background recalculation finish its writes
	a.Team.Wait()
}
