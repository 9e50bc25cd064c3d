// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pitchboard/pitchboard/internal/auth"
	"github.com/pitchboard/pitchboard/internal/config"
	"github.com/pitchboard/pitchboard/internal/observability"
	"github.com/pitchboard/pitchboard/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and, unless --metrics-addr is empty, the
metrics and health endpoints. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(ctx, cfg, deps)
		},
	}
}

// runServe runs the API until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cfg *config.Config, deps *Deps) error {
	setupLogging(cfg, deps)
	logger := deps.logger

	if cfg.UsingDevSecret() {
		logger.WarnContext(ctx, "SECRET not set, signing tokens with the development secret")
	}

	users, closeUsers, err := deps.OpenUsers(ctx, cfg, logger)
	if err != nil {
		return oops.With("operation", "open user repository").Wrap(err)
	}
	defer closeUsers()

	revoked, closeRevoked, err := deps.OpenRevocations(ctx, cfg, logger)
	if err != nil {
		return oops.With("operation", "open revocation set").Wrap(err)
	}
	defer closeRevoked()

	svc, err := newAuthService(cfg, users, revoked, logger)
	if err != nil {
		return oops.With("operation", "create auth service").Wrap(err)
	}

	var ready atomic.Bool

	var obs *observability.Server
	var obsErrCh <-chan error
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, ready.Load)
		auth.RegisterMetrics(obs.Registry())
		metrics = obs.Metrics()
		if obsErrCh, err = obs.Start(); err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := web.NewRouter(web.Options{
		Auth:        svc,
		Logger:      logger.With("component", "web"),
		Metrics:     metrics,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return oops.With("operation", "create router").Wrap(err)
	}

	listener, err := deps.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		if obs != nil {
			_ = obs.Stop(context.Background())
		}
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}
	httpSrv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
		return nil
	})

	if mem, ok := revoked.(*auth.MemoryRevocationSet); ok {
		g.Go(func() error {
			mem.Run(gctx, cfg.RevocationPruneInterval)
			return nil
		})
	}

	if obsErrCh != nil {
		g.Go(func() error {
			select {
			case err, ok := <-obsErrCh:
				if ok && err != nil {
					return oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
				}
			case <-gctx.Done():
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, oops.With("operation", "shutdown http server").Wrap(err))
		}
		if obs != nil {
			if err := obs.Stop(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	ready.Store(true)
	logger.InfoContext(ctx, "pitchd started",
		"http_addr", listener.Addr().String(),
		"metrics_addr", cfg.MetricsAddr,
		"single_use_tokens", cfg.SingleUseTokens,
		"app_env", cfg.AppEnv,
	)

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("pitchd stopped")
	return nil
}
