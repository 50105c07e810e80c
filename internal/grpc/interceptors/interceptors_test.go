package interceptors

import (
	"context"
	"errors"
	"testing"
	"time"

	"codementor/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var checkInfo = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := RecoveryInterceptor(logging.Nop())

	resp, err := intercept(context.Background(), nil, checkInfo, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err = intercept(context.Background(), nil, checkInfo, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestMetricsCollector(t *testing.T) {
	c := NewMetricsCollector()
	c.RecordMetrics("/a", 2*time.Millisecond, nil)
	c.RecordMetrics("/a", 4*time.Millisecond, errors.New("unavailable"))

	m := c.GetAllMetrics()["/a"]
	assert.Equal(t, int64(2), m.RequestCount)
	assert.Equal(t, int64(1), m.SuccessCount)
	assert.Equal(t, int64(1), m.ErrorCount)
	assert.Equal(t, 3*time.Millisecond, m.AverageDuration)
	assert.Equal(t, "2 calls, 1 errors, avg 3ms", c.Summary()["grpc:/a"])
}
