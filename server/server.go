// Package server exposes the batch pipeline and the views over HTTP:
// upload workbooks or an event log, get a view result back.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/config"
	"github.com/spektr-org/enrollstat/logging"
)

// Server is the HTTP surface.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	log    *log.Logger
}

// New builds the router.
func New(cfg *config.Config) *Server {
	s := &Server{
		cfg:    cfg,
		router: gin.New(),
		log:    logging.For("http"),
	}
	s.router.MaxMultipartMemory = cfg.MaxUploadBytes()
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/healthz", s.health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/enrollment/:view", s.enrollment)
		api.POST("/events/:view", s.events)
	}
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("🌐 Listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Infof("🛑 Shutting down")
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugf("%s %s → %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
