package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/order-interpreter/internal/server"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servir",
		Short: "Serve the HTTP API, the web UI and the gRPC API",
		Long: `Serve POST /interpretar, /healthz, /metrics and the static web UI over HTTP,
and pedidos.v1.InterpreterService over gRPC. Stops gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, os.Stdout)
			if err != nil {
				return err
			}
			defer a.close()
			if httpAddr, _ := cmd.Flags().GetString("http-addr"); httpAddr != "" {
				a.cfg.Server.HTTPAddr = httpAddr
			}
			if grpcAddr, _ := cmd.Flags().GetString("grpc-addr"); grpcAddr != "" {
				a.cfg.Server.GRPCAddr = grpcAddr
			}
			if !a.cfg.LLM.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			router := server.NewRouter(server.NewHTTPHandler(a.proc, a.logger), server.RouterConfig{WebDir: a.cfg.Server.WebDir})
			httpSrv := &http.Server{
				Addr:              a.cfg.Server.HTTPAddr,
				Handler:           server.Instrument(router, nil),
				ReadHeaderTimeout: 10 * time.Second,
			}

			grpcSrv, health := server.NewGRPCServer(server.NewGRPCService(a.proc, a.logger), a.logger)
			lis, err := net.Listen("tcp", a.cfg.Server.GRPCAddr)
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}

			errCh := make(chan error, 2)
			go func() {
				a.logger.Info("server.http.listening", "addr", httpSrv.Addr)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- fmt.Errorf("http serve: %w", err)
				}
			}()
			go func() {
				a.logger.Info("server.grpc.listening", "addr", lis.Addr().String())
				if err := grpcSrv.Serve(lis); err != nil {
					errCh <- fmt.Errorf("grpc serve: %w", err)
				}
			}()

			select {
			case <-ctx.Done():
			case err = <-errCh:
				a.logger.Error("server.failed", "error", err)
			}

			a.logger.Info("server.shutdown.start")
			health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if serr := httpSrv.Shutdown(sctx); serr != nil {
				a.logger.Warn("server.http.shutdown_failed", "error", serr)
			}
			stopped := make(chan struct{})
			go func() { grpcSrv.GracefulStop(); close(stopped) }()
			select {
			case <-stopped:
			case <-sctx.Done():
				grpcSrv.Stop()
			}
			a.logger.Info("server.shutdown.done")
			return err
		},
	}

	cmd.Flags().String("http-addr", "", "HTTP listen address (default HTTP_ADDR)")
	cmd.Flags().String("grpc-addr", "", "gRPC listen address (default GRPC_ADDR)")
	return cmd
}
