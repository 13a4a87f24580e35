package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Health serves the standard gRPC health protocol for the watch loop.
// The overall status ("") follows the watcher: SERVING while it runs,
// NOT_SERVING once shutdown begins.
type Health struct {
	srv    *grpc.Server
	health *health.Server
	lis    net.Listener
	logger *slog.Logger
}

// NewHealth listens on addr. The status starts as NOT_SERVING.
func NewHealth(addr string, logger *slog.Logger) (*Health, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &Health{srv: srv, health: hs, lis: lis, logger: logger}, nil
}

// Addr is the bound listen address.
func (h *Health) Addr() string { return h.lis.Addr().String() }

// Serve blocks until ctx is cancelled, then stops the server gracefully.
func (h *Health) Serve(ctx context.Context) error {
	h.logger.Info("health.listen", "addr", h.Addr())
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.srv.Serve(h.lis)
	}()

	select {
	case <-ctx.Done():
		h.SetServing(false)
		h.srv.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// SetServing flips the overall status.
func (h *Health) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.logger.Debug("health.status", "status", status.String())
}
