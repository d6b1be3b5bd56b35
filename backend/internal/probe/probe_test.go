package probe

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

func startProbe(t *testing.T) (*Server, grpc_health_v1.HealthClient) {
	lis := bufconn.Listen(bufSize)
	srv := New(zaptest.NewLogger(t))
	go func() {
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("Failed to dial bufnet: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
	})
	return srv, grpc_health_v1.NewHealthClient(conn)
}

func status(t *testing.T, client grpc_health_v1.HealthClient) grpc_health_v1.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	return resp.Status
}

func TestProbe_ServingStatus(t *testing.T) {
	srv, client := startProbe(t)

	if got := status(t, client); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Expected NOT_SERVING before start, got %v", got)
	}

	srv.SetServing(true)
	if got := status(t, client); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("Expected SERVING, got %v", got)
	}

	srv.SetServing(false)
	if got := status(t, client); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Expected NOT_SERVING, got %v", got)
	}
}

func TestProbe_Monitor(t *testing.T) {
	srv, client := startProbe(t)

	var healthy atomic.Bool
	healthy.Store(true)
	check := func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("mongo unreachable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Monitor(ctx, 10*time.Millisecond, check)

	waitFor := func(want grpc_health_v1.HealthCheckResponse_ServingStatus) {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if status(t, client) == want {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("Timed out waiting for %v", want)
	}

	waitFor(grpc_health_v1.HealthCheckResponse_SERVING)
	healthy.Store(false)
	waitFor(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}
