package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server is an HTTP/1.1 and cleartext HTTP/2 listener with CORS.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New wraps handler with CORS for origins and h2c, listening on addr.
func New(addr string, handler http.Handler, origins []string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h2c.NewHandler(c.Handler(handler), &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Printf("Starting suggestcheck server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the wrapped handler.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }
