package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/muurk/canfix/internal/logging"
	"github.com/muurk/canfix/internal/transport"
	"go.uber.org/zap"
)

// DefaultPath is where the hub is mounted when Config.Path is empty
const DefaultPath = "/can"

// ShutdownTimeout bounds a graceful shutdown
const ShutdownTimeout = 10 * time.Second

// Config holds the gateway configuration
type Config struct {
	Host     string
	Port     int
	Path     string // WebSocket path of the hub
	CertPath string // TLS certificate; plain HTTP when empty
	KeyPath  string // TLS private key
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// Server is the CAN-FIX websocket gateway: an HTTP server hosting the hub
// and a status endpoint, with optional buses bridged onto the hub.
type Server struct {
	config    *Config
	hub       *transport.Hub
	http      *http.Server
	tlsConfig *tls.Config
	logger    *zap.Logger
	started   time.Time

	mu       sync.Mutex
	listener net.Listener
	bridges  []string
	wg       sync.WaitGroup
}

// New creates a gateway for config. TLS is enabled when both certificate and
// key are set.
func New(config *Config) (*Server, error) {
	if (config.CertPath == "") != (config.KeyPath == "") {
		return nil, fmt.Errorf("both certificate and key must be provided together, or neither")
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}

	var tlsConfig *tls.Config
	if config.CertPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	logger := logging.GetLogger().Named("gateway")
	s := &Server{
		config:    config,
		hub:       transport.NewHub(transport.WithHubLogger(logger)),
		tlsConfig: tlsConfig,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, s.hub)
	mux.HandleFunc("/status", s.handleStatus)
	s.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Hub returns the gateway hub
func (s *Server) Hub() *transport.Hub { return s.hub }

// Listen binds the listen address. Start calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	s.listener = ln
	s.started = time.Now()
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the websocket URL of the hub on the bound address
func (s *Server) URL() string {
	scheme := "ws"
	if s.tlsConfig != nil {
		scheme = "wss"
	}
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	return scheme + "://" + addr.String() + s.config.Path
}

// Bridge attaches bus to the hub until ctx is done. Bridge errors are logged
// and end the bridge only.
func (s *Server) Bridge(ctx context.Context, name string, bus transport.Bus) {
	s.mu.Lock()
	s.bridges = append(s.bridges, name)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("Bridge attached", zap.String("bridge", name))
		if err := s.hub.Bridge(ctx, name, bus); err != nil && !errors.Is(err, transport.ErrHubClosed) {
			s.logger.Error("Bridge stopped", zap.String("bridge", name), zap.Error(err))
			return
		}
		s.logger.Info("Bridge detached", zap.String("bridge", name))
	}()
}

// Start serves until ctx is done, SIGINT/SIGTERM arrives or the server fails,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("Gateway listening",
		zap.String("addr", s.Addr().String()),
		zap.String("path", s.config.Path),
		zap.Bool("tls", s.tlsConfig != nil),
	)

	errChan := make(chan error, 1)
	go func() {
		err := s.http.Serve(s.listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown requested, stopping gateway...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown stops accepting clients, disconnects the hub and waits for the
// bridges to end.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	// Hijacked websocket connections are not closed by http.Server
	_ = s.hub.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("Gateway stopped")
	case <-ctx.Done():
		s.logger.Warn("Shutdown timeout, forcing close")
	}
	logging.Sync()

	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
