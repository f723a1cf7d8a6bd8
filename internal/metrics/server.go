package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps an HTTP server exposing Prometheus metrics for the lifetime
// of a run.
type Server struct {
	server   *http.Server
	listener net.Listener
	errs     chan error
}

// Start listens on addr and serves the gatherer at path. The listener is
// bound before Start returns, so bind errors surface to the caller.
func Start(addr, path string, gatherer prometheus.Gatherer) (*Server, error) {
	if path == "" {
		path = "/metrics"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = ln.Close()
			errs <- err
		}
	}()

	return &Server{server: srv, listener: ln, errs: errs}, nil
}

// Err returns a channel that receives the error that stopped the server, if
// serving failed, and is closed once the server has stopped.
func (s *Server) Err() <-chan error {
	return s.errs
}

// Addr returns the bound listen address
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the metrics server with a timeout.
func (s *Server) Stop() error {
	if s == nil || s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
