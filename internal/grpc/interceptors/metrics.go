package interceptors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
)

// MetricsData holds call counters for one gRPC method
type MetricsData struct {
	RequestCount    int64         `json:"request_count"`
	SuccessCount    int64         `json:"success_count"`
	ErrorCount      int64         `json:"error_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	LastUpdated     time.Time     `json:"last_updated"`
}

// MetricsCollector collects per-method call metrics
type MetricsCollector struct {
	mu      sync.RWMutex
	methods map[string]*MetricsData
}

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{methods: make(map[string]*MetricsData)}
}

// RecordMetrics records one call of method
func (c *MetricsCollector) RecordMetrics(method string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.methods[method]
	if !ok {
		m = &MetricsData{}
		c.methods[method] = m
	}

	m.RequestCount++
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.RequestCount)
	m.LastUpdated = time.Now()
	if err != nil {
		m.ErrorCount++
	} else {
		m.SuccessCount++
	}
}

// GetAllMetrics returns a copy of all collected metrics
func (c *MetricsCollector) GetAllMetrics() map[string]MetricsData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]MetricsData, len(c.methods))
	for method, m := range c.methods {
		out[method] = *m
	}
	return out
}

// Summary renders one line per method, e.g. "12 calls, 1 errors, avg 3ms"
func (c *MetricsCollector) Summary() map[string]string {
	all := c.GetAllMetrics()
	out := make(map[string]string, len(all))
	for method, m := range all {
		out["grpc:"+method] = fmt.Sprintf("%d calls, %d errors, avg %s", m.RequestCount, m.ErrorCount, m.AverageDuration)
	}
	return out
}

// MetricsInterceptor returns a gRPC unary interceptor that records call metrics
func MetricsInterceptor(collector *MetricsCollector) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)
		collector.RecordMetrics(info.FullMethod, time.Since(startTime), err)
		return resp, err
	}
}

// StreamMetricsInterceptor returns a gRPC streaming interceptor that records call metrics
func StreamMetricsInterceptor(collector *MetricsCollector) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		startTime := time.Now()
		err := handler(srv, ss)
		collector.RecordMetrics(info.FullMethod, time.Since(startTime), err)
		return err
	}
}
