// Package api exposes the load controller over HTTP. The core never
// imports this package; it is the host surface that dispatches control
// operations to the Controller.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bc-dunia/loadhog/internal/auth"
	"github.com/bc-dunia/loadhog/internal/hog"
	"github.com/bc-dunia/loadhog/internal/otel"
	"github.com/bc-dunia/loadhog/internal/telemetry"
)

// Server serves the hog control API.
type Server struct {
	controller *hog.Controller

	mu             sync.Mutex
	running        bool
	addr           string
	server         *http.Server
	listener       net.Listener
	sampler        *telemetry.Sampler
	metrics        *otel.Metrics
	tracer         *otel.Tracer
	authConfig     *auth.Config
	authMiddleware *auth.Middleware
}

// NewServer creates a server for the given controller. Auth defaults to
// disabled.
func NewServer(addr string, controller *hog.Controller) *Server {
	return &Server{
		controller: controller,
		addr:       addr,
		authConfig: auth.DefaultConfig(),
	}
}

// SetAuthConfig configures authentication. Must be called before Start.
func (s *Server) SetAuthConfig(config *auth.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authConfig = config
	s.authMiddleware = nil
}

// SetSampler attaches a resource sampler whose latest sample is included in
// status responses.
func (s *Server) SetSampler(sampler *telemetry.Sampler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampler = sampler
}

// SetMetrics attaches the OpenTelemetry metrics instance.
func (s *Server) SetMetrics(m *otel.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// SetTracer attaches the OpenTelemetry tracer used by the HTTP middleware.
func (s *Server) SetTracer(t *otel.Tracer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracer = t
}

func (s *Server) getAuthMiddleware() *auth.Middleware {
	if s.authMiddleware != nil {
		return s.authMiddleware
	}

	if s.authConfig == nil {
		s.authConfig = auth.DefaultConfig()
	}

	var authenticator auth.Authenticator
	if s.authConfig.Mode == auth.AuthModeAPIKey {
		authenticator = auth.NewAPIKeyAuthenticator(s.authConfig)
	}

	s.authMiddleware = auth.NewMiddleware(s.authConfig, authenticator)
	return s.authMiddleware
}

// Start begins listening and serving. It returns once the listener is
// bound.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/hog/v1/start", s.handleStart)
	mux.HandleFunc("/hog/v1/stop", s.handleStop)
	mux.HandleFunc("/hog/v1/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleHealthz)

	var handler http.Handler = mux
	handler = s.getAuthMiddleware().Handler(handler)
	if s.tracer != nil {
		handler = otel.Middleware(s.tracer)(handler)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			fmt.Printf("server error: %v\n", err)
		}
	}()

	return nil
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s", s.listener.Addr().String())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.running = false
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
