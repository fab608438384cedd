package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/tasks"
)

// Endpoint is an [http.Handler] that knows the GET paths it serves.
type Endpoint interface {
	http.Handler
	Routes() []string
}

// BasicRouter routes requests to [Endpoint]s and handlers through a [Middleware] chain.
//
// Uses [http.ServeMux] method patterns for routing. Middleware wraps the whole mux,
// so unmatched routes and 405s pass through it too.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	handler     http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware; the first added is outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
	r.handler = nil
}

// Handle registers handler for method and path, e.g. Handle("GET", "/healthz", h).
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, handler)
}

// Mount registers every route of e for GET.
func (r *BasicRouter) Mount(e Endpoint) {
	for _, route := range e.Routes() {
		r.Handle(http.MethodGet, route, e)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		r.handler = r.Apply(r.mux)
	}
	r.handler.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

// NewRouter builds the resolution endpoint's router with its standard middleware.
func NewRouter(resolver tasks.PlaylistResolver, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recover(logger), RequestID(), Logging(logger))
	r.Mount(HealthHandler{})
	r.Mount(NewResolveHandler(resolver, logger))
	// chain is built before serving; concurrent requests only read it
	r.handler = r.Apply(r.mux)
	return r
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
