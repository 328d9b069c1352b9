package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Server hosts the HTML pages and the message API on one listener.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the route table and wraps it with the shared middleware.
func NewServer(h *Handlers, bind string, port int) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /workspaces", h.HandleWorkspaces)
	mux.HandleFunc("GET /workspaces/{id}", h.HandleWorkspaceDetail)
	mux.HandleFunc("POST /api/message", h.HandleMessage)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", bind, port),
			Handler:           securityHeaders(mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until the context is cancelled or SIGINT/SIGTERM arrives,
// then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: listening on http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
