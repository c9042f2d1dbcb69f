package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tubepulse/internal/builder"
	"tubepulse/internal/logging"
	"tubepulse/internal/ranking"
	"tubepulse/internal/refresh"
	"tubepulse/internal/store"
)

// BuilderFactory returns the builder a remote refresh runs. It is called
// per request so source list edits apply without a restart.
type BuilderFactory func(ctx context.Context) (builder.Builder, error)

// Options wires the server's collaborators.
type Options struct {
	Bind         string
	RefreshToken string
	Store        store.Store
	Runner       *refresh.Runner
	NewBuilder   BuilderFactory
	// Interval is the guard applied to remote refreshes.
	Interval time.Duration
	// Metric is the ranking used when a request names none.
	Metric ranking.Metric
	TopN   int
	// MinViews hides videos below this many views. Zero disables the
	// threshold, matching ranking.TopN; callers wanting the display default
	// pass ranking.MinViewsForDisplay, as serve does through config.
	MinViews int64
	Logger   *slog.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	opts   Options
	logger *slog.Logger
	router chi.Router
}

// New builds the router. Zero TopN and an empty Metric fall back to the
// dashboard defaults; MinViews is used as given. A negative MinViews is
// treated as zero.
func New(opts Options) *Server {
	if opts.TopN <= 0 {
		opts.TopN = ranking.DefaultTopN
	}
	if opts.Metric == "" {
		opts.Metric = ranking.MetricViewsDeltaPct
	}
	opts.MinViews = max(opts.MinViews, 0)
	s := &Server{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "web"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/top", s.handleTop)
	r.With(s.bearerAuth).Post("/api/refresh", s.handleRefresh)
	r.Get("/refresh/{token}", s.handleTokenRefresh)
	r.Post("/refresh/{token}", s.handleTokenRefresh)

	s.router = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("web: bind address not configured")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("web listen: %w", err)
	}

	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Remote refreshes walk every source before responding.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("dashboard listening", logging.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		return fmt.Errorf("web serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web shutdown: %w", err)
	}
	s.logger.Info("dashboard stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if strings.HasPrefix(path, "/refresh/") {
			path = "/refresh/{token}"
		}
		s.logger.Debug("http request",
			logging.String("method", r.Method),
			logging.String("path", path),
			logging.Int("status", ww.Status()),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("request_id", middleware.GetReqID(r.Context())))
	})
}
