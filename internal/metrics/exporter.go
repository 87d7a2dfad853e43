package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wemix/btcprobe/pkg/logger"
)

const (
	// DefaultPath is the only route the exporter serves
	DefaultPath = "/metrics"

	// DefaultAddr is used when no bind address is configured
	DefaultAddr = "0.0.0.0:9090"
)

// Exporter handles the HTTP server for Prometheus metrics
type Exporter struct {
	registry *Registry
	logger   *logger.Logger
	router   *gin.Engine
	addr     string

	mu     sync.Mutex
	server *http.Server
	ln     net.Listener
	errCh  chan error
}

// NewExporter creates a new Prometheus exporter
func NewExporter(registry *Registry, addr string, logger *logger.Logger) *Exporter {
	if addr == "" {
		addr = DefaultAddr
	}

	e := &Exporter{
		registry: registry,
		logger:   logger,
		addr:     addr,
		errCh:    make(chan error, 1),
	}
	e.router = e.newRouter()

	return e
}

func (e *Exporter) newRouter() *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = false

	router.Use(gin.Recovery())
	router.Use(requestLogger(e.logger))

	handler := promhttp.HandlerFor(
		e.registry.Gatherer(),
		promhttp.HandlerOpts{
			EnableOpenMetrics: false,
			ErrorHandling:     promhttp.HTTPErrorOnError,
			ErrorLog:          e.logger.StdLogger(),
			Timeout:           10 * time.Second,
		},
	)
	router.GET(DefaultPath, gin.WrapH(handler))

	// Unknown paths and non-GET methods get a bare 404
	router.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return router
}

// Handler returns the exporter's router
func (e *Exporter) Handler() http.Handler {
	return e.router
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; errors after that are logged and sent on Err.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.server != nil {
		return fmt.Errorf("exporter already started on %s", e.ln.Addr())
	}

	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", e.addr, err)
	}

	server := &http.Server{
		Handler:      e.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     e.logger.StdLogger(),
	}
	e.server = server
	e.ln = ln

	go func() {
		e.logger.Info("Starting Prometheus exporter",
			zap.String("addr", ln.Addr().String()),
			zap.String("path", DefaultPath))

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("Prometheus exporter error", zap.Error(err))
			select {
			case e.errCh <- fmt.Errorf("metrics server: %w", err):
			default:
			}
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server. Safe to call before Start and more
// than once.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	server := e.server
	e.server = nil
	e.mu.Unlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		e.logger.Error("Failed to shutdown Prometheus exporter gracefully", zap.Error(err))
		return err
	}

	e.logger.Info("Prometheus exporter stopped")
	return nil
}

// Err reports a listener failure that happened after Start returned
func (e *Exporter) Err() <-chan error {
	return e.errCh
}

// Addr returns the bound address once started, the configured one otherwise
func (e *Exporter) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ln != nil {
		return e.ln.Addr().String()
	}
	return e.addr
}

// URL returns the URL of the metrics endpoint
func (e *Exporter) URL() string {
	return fmt.Sprintf("http://%s%s", e.Addr(), DefaultPath)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug("metrics request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
