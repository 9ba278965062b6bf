// Package api serves attention-graph views over HTTP. Each view instance is
// an HTML artifact driven by a WebSocket session; the data endpoints give
// random access to the attnbin slices behind it.
package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/r3d91ll/attngraph/pkg/view"
)

// ServerConfig holds configuration for the API server. Zero values take
// the DefaultServerConfig values, except CORSOrigins where nil disables
// CORS handling.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	ReadTimeout  time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idleTimeout"`

	// CORSOrigins also gates WebSocket upgrades. "*" allows any origin.
	CORSOrigins []string `yaml:"cors_origins" json:"corsOrigins"`

	EnableLogging bool `yaml:"enable_logging" json:"enableLogging"`

	// EnableMetrics counts requests and serves /metrics.
	EnableMetrics bool `yaml:"enable_metrics" json:"enableMetrics"`
}

// DefaultServerConfig returns the configuration used by 'attngraph serve'
// without a config file.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:          "localhost",
		Port:          8081,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		CORSOrigins:   []string{"http://localhost:8081"},
		EnableLogging: true,
		EnableMetrics: true,
	}
}

func (c *ServerConfig) fillDefaults() {
	d := DefaultServerConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
}

// Server hosts live views of the datasets in a Catalog.
type Server struct {
	config  *ServerConfig
	router  *Router
	catalog *Catalog
	views   *ViewRegistry
	hub     *Hub

	mu         sync.RWMutex
	httpServer *http.Server
	running    bool
}

// NewServer creates a server for the datasets in catalog. Engines of new
// views are built with opts. The WebSocket hub starts immediately so the
// handler can be mounted on a test server without calling Start.
func NewServer(config *ServerConfig, catalog *Catalog, opts view.Options) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	config.fillDefaults()
	if catalog == nil {
		catalog = NewCatalog(nil)
	}

	s := &Server{
		config:  config,
		router:  NewRouter(),
		catalog: catalog,
		views:   NewViewRegistry(opts),
		hub:     NewHub(),
	}
	go s.hub.Run()

	s.router.GET("/healthz", s.handleHealth)
	if config.EnableMetrics {
		s.router.GET("/metrics", MetricsHandler())
	}
	NewViewHandler(catalog, s.views).RegisterRoutes(s.router)
	NewDataHandler(catalog).RegisterRoutes(s.router)
	NewWebSocketHandler(s.hub, s.views).RegisterRoutes(s.router)
	return s
}

// Address returns host:port.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

func (s *Server) Router() *Router       { return s.router }
func (s *Server) Config() *ServerConfig { return s.config }
func (s *Server) Views() *ViewRegistry  { return s.views }
func (s *Server) Hub() *Hub             { return s.hub }

// Handler returns the router behind the middleware stack. From the outside
// in: recovery, logging, metrics, request id, CORS, content type.
func (s *Server) Handler() http.Handler {
	var h http.Handler = ContentTypeMiddleware(s.router)
	if len(s.config.CORSOrigins) > 0 {
		h = CORSMiddleware(s.config.CORSOrigins)(h)
		SetUpgraderCheckOrigin(makeOriginChecker(s.config.CORSOrigins))
	}
	h = RequestIDMiddleware(h)
	if s.config.EnableMetrics {
		h = MetricsMiddleware(h)
	}
	if s.config.EnableLogging {
		h = LoggingMiddleware(h)
	}
	return RecoveryMiddleware(h)
}

// Start binds the listen address and serves in the background. Bind
// errors such as a port in use are returned directly.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}
	ln, err := net.Listen("tcp", s.Address())
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.running = true

	srv := s.httpServer
	go func() {
		log.Printf("[api] serving on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[api] server error: %v", err)
		}
	}()
	return nil
}

// Shutdown closes the live sessions and drains the HTTP server until ctx
// expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hub.Stop()
	if !s.running {
		return nil
	}
	s.running = false
	log.Printf("[api] shutting down")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning reports whether Start succeeded and Shutdown has not run.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"datasets": len(s.catalog.Names()),
		"views":    s.views.Len(),
		"live":     s.hub.Count(),
	})
}

// makeOriginChecker validates WebSocket origins against the CORS list.
// Requests without an Origin header are same-origin and pass.
func makeOriginChecker(allowedOrigins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
