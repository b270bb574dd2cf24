package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/GriffinCanCode/vizy/internal/api/http"
	"github.com/GriffinCanCode/vizy/internal/api/middleware"
	"github.com/GriffinCanCode/vizy/internal/api/ws"
	"github.com/GriffinCanCode/vizy/internal/client"
	"github.com/GriffinCanCode/vizy/internal/domain/job"
	"github.com/GriffinCanCode/vizy/internal/domain/project"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/config"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/vizy/internal/page"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	handler http.Handler
	http    *http.Server
	runner  *job.Runner
	project *project.Project
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a server for the project p.
func NewServer(cfg *config.Config, p *project.Project, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing vizy server",
		zap.String("project", p.Name),
		zap.String("dir", p.Dir),
		zap.String("addr", cfg.Server.Addr()),
	)

	metrics := monitoring.NewMetrics()

	runner := job.NewRunner(job.Options{
		PTY:     cfg.Job.PTY,
		Timeout: cfg.Job.Timeout,
		Logger:  logger,
		OnFinish: func(j *job.Job) {
			metrics.JobFinished(string(j.State()), j.Duration())
		},
	})

	endpoints := page.DefaultEndpoints()
	endpoints.PollInterval = cfg.Poll.Interval
	index, err := page.NewRenderer(nil).Render(p, endpoints)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracing.New("server", logger)))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	handlers := apihttp.NewHandlers(p, runner, index, metrics, logger)
	wsHandler := ws.NewHandler(runner, metrics, logger)

	run := []gin.HandlerFunc{handlers.Run}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limit := middleware.DefaultRateLimitConfig()
		limit.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limit.Burst = cfg.RateLimit.Burst
		run = append([]gin.HandlerFunc{middleware.RateLimit(limit)}, run...)
	}

	// Register routes
	router.GET("/", handlers.Index)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST(client.RunPath, run...)
	router.GET(client.LogPath, handlers.Log)
	router.GET(client.ResultPath, handlers.Result)
	router.GET(client.StreamPath, wsHandler.HandleConnection)

	s := &Server{
		router:  router,
		runner:  runner,
		project: p,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}
	s.handler = s.compress(router)
	s.http = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// compress gzips every response except the WebSocket stream, which needs
// the raw connection.
func (s *Server) compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == client.StreamPath {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the full HTTP handler, middleware and compression included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.Close(sctx)
	})
	return g.Wait()
}

// Close kills the running task and shuts the HTTP server down.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return errors.Join(
		s.runner.Close(ctx),
		s.http.Shutdown(ctx),
	)
}
