package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"codementor/internal/config"
	"codementor/internal/grpc/server"
	"codementor/internal/logging/types"
)

// Multiplexer serves gRPC and HTTP on one listener, routing by protocol
type Multiplexer struct {
	grpcServer *server.Server
	httpServer *http.Server
	enableGRPC bool
	logger     types.Logger

	mux      cmux.CMux
	listener net.Listener
	wg       sync.WaitGroup
}

// NewMultiplexer creates a new protocol multiplexer. grpcServer may be nil
// when gRPC is disabled.
func NewMultiplexer(cfg *config.Config, grpcServer *server.Server, httpHandler http.Handler, logger types.Logger) *Multiplexer {
	return &Multiplexer{
		grpcServer: grpcServer,
		enableGRPC: cfg.Server.EnableGRPC && grpcServer != nil,
		logger:     logger.WithField("component", "multiplexer"),
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout + 2*time.Minute,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and serves both protocols in the background
func (m *Multiplexer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return m.Serve(listener)
}

// Serve serves both protocols on listener in the background
func (m *Multiplexer) Serve(listener net.Listener) error {
	m.listener = listener
	m.mux = cmux.New(listener)
	address := listener.Addr().String()

	if m.enableGRPC {
		grpcListener := m.mux.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.grpcServer.Start(grpcListener); err != nil && !errors.Is(err, cmux.ErrListenerClosed) {
				m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	httpListener := m.mux.Match(cmux.Any())
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{"address": address})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, cmux.ErrListenerClosed) {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, cmux.ErrServerClosed) {
			m.logger.Error("Multiplexer failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.logger.Info("Multiplexer started successfully", map[string]interface{}{
		"address": address,
		"grpc":    m.enableGRPC,
	})
	return nil
}

// Stop gracefully shuts down both servers, waiting at most until ctx is done
func (m *Multiplexer) Stop(ctx context.Context) error {
	m.logger.Info("Stopping multiplexer...")

	if err := m.httpServer.Shutdown(ctx); err != nil {
		m.logger.Error("HTTP server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if m.enableGRPC {
		m.grpcServer.Stop()
	}
	if m.mux != nil {
		m.mux.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Multiplexer stopped gracefully")
		return nil
	case <-ctx.Done():
		m.logger.Warn("Multiplexer shutdown timed out")
		return ctx.Err()
	}
}

// GetAddress returns the address the multiplexer is listening on
func (m *Multiplexer) GetAddress() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}
