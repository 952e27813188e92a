package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/awmpietro/golang-itinerary-optimizer/internal/app"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/config"
	"github.com/awmpietro/golang-itinerary-optimizer/internal/transport/httptransport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := app.NewLogger(os.Stderr, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	rt, err := app.Wire(ctx, cfg, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire service")
	}
	defer rt.Close()

	gin.SetMode(gin.ReleaseMode)
	h := httptransport.NewHandler(rt.Service, logger.With().Str("component", "http").Logger())
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httptransport.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SolverTimeLimit+5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("serve")
	}
}
