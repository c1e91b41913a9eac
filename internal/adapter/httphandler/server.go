package httphandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const defaultHandlerTimeout = 5 * time.Second

type ServerOption func(*serverOptions)

type serverOptions struct {
	handlerTimeout time.Duration
}

// WithHandlerTimeout bounds a single request, slow handlers get 503.
func WithHandlerTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) {
		if d > 0 {
			o.handlerTimeout = d
		}
	}
}

// HTTPServer serves the storefront api. The listener is bound by Listen
// so a port-zero address is resolved before Run.
type HTTPServer struct {
	httpServer *http.Server
	ln         *net.Listener
}

func NewHTTPServer(addr string, handler http.Handler, opts ...ServerOption) HTTPServer {
	o := serverOptions{handlerTimeout: defaultHandlerTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	s := &http.Server{
		Addr:              addr,
		Handler:           http.TimeoutHandler(handler, o.handlerTimeout, "unavailable"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	return HTTPServer{httpServer: s, ln: new(net.Listener)}
}

func (s HTTPServer) Listen() error {
	const op = "HTTPServer.Listen"

	if *s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*s.ln = ln
	return nil
}

// Addr is the bound address, or the configured one before Listen.
func (s HTTPServer) Addr() string {
	if *s.ln != nil {
		return (*s.ln).Addr().String()
	}
	return s.httpServer.Addr
}

func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"
	log := slog.With("op", op)

	defer stopFn()
	if err := s.Listen(); err != nil {
		log.Error("failed to listen", "err", err)
		return
	}
	log.Info("listening", "addr", s.Addr())
	err := s.httpServer.Serve(*s.ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("unexpected server shutdown", "err", err)
	}
}

func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
	}
	// Listen without Run leaves the listener untracked by Shutdown.
	if *s.ln != nil {
		_ = (*s.ln).Close()
	}
	log.Info("http server is closed")
}
