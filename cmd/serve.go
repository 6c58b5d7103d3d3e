package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agrotalent/matching-service/internal/api"
	"agrotalent/matching-service/internal/grpcserver"
	"agrotalent/matching-service/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers and the notification sweep",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()
	lg := d.logger

	// ── HTTP server ──────────────────────────────────────────────────────────
	if !d.cfg.Log.Debug && !debugLogs {
		gin.SetMode(gin.ReleaseMode)
	}
	h := api.NewHandler(d.finder, d.inbox, logger.Component(lg, "api"), d.cfg.Match.TopLimit)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", d.cfg.HTTPPort),
		Handler:      api.NewRouter(h, api.RouterConfig{Service: app, Version: version}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", d.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	gs := grpcserver.New(grpcserver.NewServer(d.finder, logger.Component(lg, "grpc")))

	// ── Scheduler ────────────────────────────────────────────────────────────
	if d.cfg.Sweep.Enabled {
		sched := d.newScheduler()
		if err := sched.Start(ctx); err != nil {
			lis.Close()
			return err
		}
		defer sched.Stop()
	} else {
		lg.Info("notification sweep disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info("HTTP listening", zap.String("version", version), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lg.Info("gRPC listening", zap.String("addr", lis.Addr().String()))
		if err := gs.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	// ── Graceful shutdown ────────────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Warn("HTTP shutdown error", zap.Error(err))
		}
		gs.GracefulStop()
		return nil
	})

	err = g.Wait()
	lg.Info("stopped")
	return err
}
