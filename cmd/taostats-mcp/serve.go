package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/taostats-mcp/health"
	"github.com/jonwraymond/taostats-mcp/observe"
	"github.com/jonwraymond/taostats-mcp/server"
)

const (
	purgeInterval   = time.Minute
	shutdownTimeout = 5 * time.Second
)

func newServeCmd(v *viper.Viper, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the TaoStats tools over MCP stdio",
		Long: `Serve the TaoStats tools to an MCP client over stdin and stdout.

Logs go to stderr. When an admin address is set, health checks and
Prometheus metrics are served there as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, v, opts.configFile)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = a.close(shutdownCtx)
			}()
			return a.serve(ctx)
		},
	}

	cmd.Flags().String("admin-addr", "", "Address for /healthz, /readyz, /health and /metrics")
	cmd.Flags().Bool("coalesce", false, "Share one upstream call among concurrent identical misses")
	bindFlag(v, "admin_addr", cmd, "admin-addr")
	bindFlag(v, "coalesce", cmd, "coalesce")
	return cmd
}

// serve runs the stdio server until the client disconnects or ctx ends,
// alongside the admin server and the cache purge loop.
func (a *app) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := server.New(a.registry,
		server.WithMiddleware(a.middleware),
		server.WithLogger(a.logger),
		server.WithVersion(Version),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// A closed stdin ends the session and everything else with it.
		defer cancel()
		err := srv.ServeStdio(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if a.cfg.AdminAddr != "" {
		g.Go(func() error {
			return a.serveAdmin(ctx)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := a.store.Purge(); n > 0 {
					a.logger.Debug(ctx, "purged expired cache entries", observe.F("count", n))
				}
			}
		}
	})

	a.logger.Info(ctx, "taostats-mcp serving on stdio",
		observe.F("version", Version),
		observe.F("minute_limit", a.cfg.MinuteLimit),
		observe.F("coalesce", a.cfg.Coalesce),
	)
	return g.Wait()
}

func (a *app) serveAdmin(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.AdminAddr,
		Handler:           health.NewAdminMux(a.health, a.obs.MetricsHandler()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "admin server listening", observe.F("addr", a.cfg.AdminAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
