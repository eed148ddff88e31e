package main

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-urlcache"
	"github.com/Borislavv/go-ash-urlcache/internal/api"
	"github.com/Borislavv/go-ash-urlcache/internal/gateway"
	"github.com/Borislavv/go-ash-urlcache/internal/metrics"
	"github.com/Borislavv/go-ash-urlcache/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the owner's entries, mint their image URLs and serve them over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, err := loadApp()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, os.Stdout)

	signer, err := gateway.New(cfg.Gateway)
	if err != nil {
		return err
	}

	repo, err := repository.Open(cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	session := ashurl.New(ctx, cfg.Cache, signer, logger)
	defer func() { _ = session.Close() }()

	entries, err := repo.ListByUser(ctx, cfg.Server.UserID)
	if err != nil {
		return err
	}
	session.Attach(ctx, entries)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		metrics.NewCollector(session),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(session, repo, cfg.Server.UserID, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(handler, reg, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server is listening", "addr", cfg.Server.Addr, "gateway", cfg.Gateway.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "err", err)
	}
	return <-errCh
}
