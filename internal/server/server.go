package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
)

// shutdownTimeout bounds how long Start waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// StatusSource is the read side of the coordinator.
type StatusSource interface {
	Current() (*heater.Snapshot, bool)
	LastError() error
	Refresh(ctx context.Context) (*heater.Snapshot, error)
	Subscribe() (<-chan coordinator.Update, func())
}

// CommandExecutor sends a command and returns the refreshed snapshot.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd heater.Command) (*heater.Snapshot, error)
}

// Config holds the server configuration
type Config struct {
	Listen string // e.g. ":8080"

	Status   StatusSource
	Commands CommandExecutor

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler
}

// Server exposes one heater over HTTP and WebSocket.
type Server struct {
	config   *Config
	handler  http.Handler
	http     *http.Server
	listener net.Listener

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]func()
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config.Status == nil {
		return nil, errors.New("server: status source is required")
	}
	if config.Commands == nil {
		return nil, errors.New("server: command executor is required")
	}

	s := &Server{
		config:      config,
		activeConns: make(map[string]func()),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/commands/{name}", s.handleCommand)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	if s.config.Metrics != nil {
		mux.Handle("GET /metrics", s.config.Metrics)
	}
	return logRequests(mux)
}

// Addr returns the listener address once Start has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens on the configured address and blocks until ctx is done, a
// SIGINT/SIGTERM arrives or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	logging.Info("Server listening for connections",
		zap.String("addr", listener.Addr().String()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
	case <-ctx.Done():
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, closes WebSocket streams and waits for
// in-flight handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	srv := s.http
	for addr, closeConn := range s.activeConns {
		logging.Debug("Closing WebSocket stream", zap.String("remote_addr", addr))
		closeConn()
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of open WebSocket streams
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) trackConn(addr string, closeConn func()) {
	s.mu.Lock()
	s.activeConns[addr] = closeConn
	s.mu.Unlock()
}

func (s *Server) untrackConn(addr string) {
	s.mu.Lock()
	delete(s.activeConns, addr)
	s.mu.Unlock()
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
