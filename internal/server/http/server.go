package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rzbill/streamer/internal/runtime"
	"github.com/rzbill/streamer/internal/server/http/controllers"
	streamsvc "github.com/rzbill/streamer/internal/services/streams"
	logpkg "github.com/rzbill/streamer/pkg/log"
)

const defaultShutdownTimeout = 5 * time.Second

// Server is the HTTP gateway over the streams service.
type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds the router and registers all controllers.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	logger = logger.WithComponent("http")
	svc := streamsvc.NewWithLogger(rt, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	r.Use(requestLogger(logger))
	controllers.NewControllerRegistry(rt, svc, logger).RegisterAllRoutes(r)

	return &Server{rt: rt, logger: logger, srv: &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Addr returns the bound address once Listen succeeded.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Listen binds addr without serving yet.
func (s *Server) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http server listening", logpkg.Str("addr", l.Addr().String()))
	return nil
}

// Serve serves on the listener bound by Listen until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		return errors.New("httpserver: Serve called before Listen")
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(cctx); err != nil {
			// Long-lived pulls and SSE tails do not finish on their own.
			_ = s.srv.Close()
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close closes the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger logpkg.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				logpkg.Str("method", r.Method),
				logpkg.Str("path", r.URL.Path),
				logpkg.Int("status", ww.Status()),
				logpkg.Str("request_id", middleware.GetReqID(r.Context())),
				logpkg.Dur("dur", time.Since(start)),
			)
		})
	}
}
