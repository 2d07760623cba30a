// Package ui serves the browser form that starts a download-and-parse run
// and shows the resulting statement tables.
package ui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Runner executes a request; *edgar.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req edgar.Request, r edgar.Renderer) (*edgar.Report, error)
}

// RunObserver is told the outcome of each submitted run (ok, invalid, error).
type RunObserver interface {
	RunFinished(result string)
}

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
	Metrics         http.Handler
	Observer        RunObserver
}

// WithAddr sets the listen host and port.
func WithAddr(host string, port int) ServerOption {
	return func(c *ServerConfig) {
		c.Host, c.Port = host, port
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(c *ServerConfig) { c.ShutdownTimeout = d }
}

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(c *ServerConfig) { c.Logger = l }
}

// WithMetricsHandler replaces the default Prometheus handler served on /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(c *ServerConfig) { c.Metrics = h }
}

// WithRunObserver reports run outcomes, typically to metrics.
func WithRunObserver(o RunObserver) ServerOption {
	return func(c *ServerConfig) { c.Observer = o }
}

// Server wraps the Echo HTTP server.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	runner Runner
	tmpl   *template.Template
}

// NewServer creates the UI server around runner.
func NewServer(runner Runner, opts ...ServerOption) (*Server, error) {
	cfg := &ServerConfig{
		Host:            "127.0.0.1",
		Port:            8501,
		ReadTimeout:     30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = promhttp.Handler()
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout

	e.Use(Recover(cfg.Logger))
	e.Use(RequestLogging(cfg.Logger))

	s := &Server{
		echo:   e,
		config: cfg,
		runner: runner,
		tmpl:   tmpl,
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.POST("/run", s.handleRun)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.config.Metrics))
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start listens until Shutdown; a clean shutdown returns nil.
func (s *Server) Start() error {
	s.config.Logger.Info().Str("addr", s.Addr()).Msg("http server: listening")
	if err := s.echo.Start(s.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting at most the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.config.Logger.Info().Msg("http server: stopped gracefully")
	return nil
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
