// internal/server/server.go
// Package server exposes the trained-model outputs, the granularity catalog and
// the assistant over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mwiater/gridcast/internal/appconfig"
	"github.com/mwiater/gridcast/internal/assistant"
	"github.com/mwiater/gridcast/internal/logging"
	"github.com/mwiater/gridcast/internal/outputs"
	"github.com/mwiater/gridcast/internal/telemetry"
	"golang.org/x/time/rate"
)

// Options configures a Server.
type Options struct {
	Repository   *outputs.Repository
	Assistant    assistant.Provider
	SystemPrompt string
	Models       []appconfig.ModelInfo
	CORSOrigins  []string
	Metrics      *telemetry.Metrics
	// ChatRate limits chat requests per second across all clients. Zero disables the limit.
	ChatRate float64
	Debug    bool
}

// Server is the outputs API.
type Server struct {
	opts        Options
	engine      *gin.Engine
	chatLimiter *rate.Limiter
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if len(opts.Models) == 0 {
		opts.Models = appconfig.DefaultModels
	}

	s := &Server{opts: opts}
	if opts.ChatRate > 0 {
		s.chatLimiter = rate.NewLimiter(rate.Limit(opts.ChatRate), 1)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), observe(opts.Metrics), cors(opts.CORSOrigins))

	r.GET("/health", s.health)
	r.GET("/models", s.models)
	r.GET("/granularities", s.granularities)
	r.GET("/available", s.available)
	r.GET("/metrics", s.output(outputs.Metrics))
	r.GET("/predict", s.output(outputs.Preds))
	r.GET("/predict/aggregated", s.aggregated)
	r.POST("/chat", s.chat)
	r.GET("/debug/metrics", gin.WrapH(opts.Metrics.Handler()))

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.WithComponent("server").WithField("addr", addr).Info("outputs API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
