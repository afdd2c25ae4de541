// Package api serves the challenge engine over HTTP.
//
// Every request names its caller in the X-Caller header. The header is
// taken at face value; proving control of the identity belongs to the
// wallet layer in front of this service.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/roach88/stakewake/internal/engine"
	"github.com/roach88/stakewake/internal/metrics"
)

// CallerHeader carries the identity of the party making a request.
const CallerHeader = "X-Caller"

// Options configures a Server. Zero values disable the optional parts.
type Options struct {
	Metrics        *metrics.Collector
	Logger         *slog.Logger
	Limiter        *RateLimiter
	AllowedOrigins []string
}

// Server routes HTTP requests to an Engine.
type Server struct {
	engine  *engine.Engine
	metrics *metrics.Collector
	limiter *RateLimiter
	logger  *slog.Logger
	origins []string
}

// New creates a Server for eng.
func New(eng *engine.Engine, opts Options) *Server {
	s := &Server{
		engine:  eng,
		metrics: opts.Metrics,
		limiter: opts.Limiter,
		logger:  opts.Logger,
		origins: opts.AllowedOrigins,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Router returns the route table without the outer CORS and recovery
// wrappers.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	if s.limiter != nil {
		api.Use(s.limiter.Middleware)
	}

	api.HandleFunc("/challenges", s.createChallenge).Methods(http.MethodPost)
	api.HandleFunc("/challenges/{id:[0-9]+}", s.getChallenge).Methods(http.MethodGet)
	api.HandleFunc("/challenges/{id:[0-9]+}/confirm", s.confirmWakeUp).Methods(http.MethodPost)
	api.HandleFunc("/challenges/{id:[0-9]+}/finalize", s.finalize).Methods(http.MethodPost)

	api.HandleFunc("/social-challenges", s.createSocial).Methods(http.MethodPost)
	api.HandleFunc("/social-challenges/{id:[0-9]+}", s.getSocial).Methods(http.MethodGet)
	api.HandleFunc("/social-challenges/{id:[0-9]+}/confirm", s.confirmSocialWakeUp).Methods(http.MethodPost)
	api.HandleFunc("/social-challenges/{id:[0-9]+}/finalize", s.finalizeSocial).Methods(http.MethodPost)

	api.HandleFunc("/users/{identity}/profile", s.profile).Methods(http.MethodGet)
	api.HandleFunc("/users/{identity}/stats", s.stats).Methods(http.MethodGet)
	api.HandleFunc("/users/{identity}/challenges", s.listChallenges).Methods(http.MethodGet)

	api.HandleFunc("/oracle", s.getOracle).Methods(http.MethodGet)
	api.HandleFunc("/oracle", s.setOracle).Methods(http.MethodPut)

	return r
}

// Handler returns the full HTTP handler: routes wrapped in CORS and panic
// recovery.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", CallerHeader}),
		handlers.ExposedHeaders([]string{"Content-Length"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(s.Router()))
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.Cleanup(ctx, time.Minute, 3*time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.engine.Ping(ctx); err != nil {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "stakewake"})
}
