package server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"codementor/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthService(t *testing.T) {
	llmErr := errors.New("no API key configured")
	s := NewServer(map[string]func(context.Context) error{
		"storage": func(context.Context) error { return nil },
		"llm":     func(context.Context) error { return llmErr },
	}, time.Hour, logging.Nop())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- s.Start(lis) }()
	defer func() {
		s.Stop()
		<-served
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service}, grpc.WaitForReady(true))
		require.NoError(t, err)
		return resp.Status
	}

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(ServicePrefix+"storage"))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServicePrefix+"llm"))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(""))

	metrics := s.Metrics().GetAllMetrics()
	assert.Equal(t, int64(3), metrics["/grpc.health.v1.Health/Check"].RequestCount)
	assert.Contains(t, s.Metrics().Summary(), "grpc:/grpc.health.v1.Health/Check")
}
