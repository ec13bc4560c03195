package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	readTimeout       = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 2 * time.Minute
)

// Server wraps the HTTP server that serves the router.
type Server struct {
	server *http.Server
}

func New(handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Run listens on addr and serves until Shutdown is called.
func (svr *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return svr.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after a clean Shutdown.
func (svr *Server) Serve(ln net.Listener) error {
	if err := svr.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
