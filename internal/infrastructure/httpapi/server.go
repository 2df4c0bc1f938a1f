// Package httpapi exposes the suggestion engine on a loopback HTTP/JSON
// boundary.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/cmdsense/internal/application/suggest"
	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/ports"
)

// Server wires the engine to its HTTP routes.
type Server struct {
	engine  *suggest.Service
	logger  ports.Logger
	addr    string
	timeout time.Duration
}

// NewServer builds a server for the configured loopback address.
func NewServer(engine *suggest.Service, logger ports.Logger, cfg domain.ServerSettings) *Server {
	return &Server{
		engine:  engine,
		logger:  logger,
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Handler assembles the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /suggest", s.handleSuggest)
	mux.HandleFunc("POST /fix-error", s.handleFixError)
	mux.HandleFunc("POST /rebuild-index", s.handleRebuildIndex)
	return s.withRequestScope(mux)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", map[string]interface{}{"addr": s.addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// withRequestScope attaches a correlation ID, an overall per-request
// timeout, and access logging.
func (s *Server) withRequestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := r.Context()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.Debug("request handled", map[string]interface{}{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
	})
}
