// Package server is the HTTP boundary the dashboard drives: upload,
// predict, download and listing routes plus health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stockForecast/config"
	"stockForecast/internal/app"
	"stockForecast/internal/metrics"
	"stockForecast/internal/ports"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second // Model fitting is synchronous within the request
	idleTimeout  = 60 * time.Second

	shutdownGrace = 10 * time.Second
)

// Server wires the forecast service to HTTP routes.
type Server struct {
	cfg     *config.Config
	logger  ports.Logger
	service *app.ForecastService
	metrics *metrics.Metrics
}

// New creates the HTTP server wrapper.
func New(cfg *config.Config, logger ports.Logger, service *app.ForecastService, m *metrics.Metrics) (*Server, error) {
	if cfg == nil || logger == nil || service == nil || m == nil {
		return nil, fmt.Errorf("missing required dependencies for Server")
	}
	return &Server{cfg: cfg, logger: logger, service: service, metrics: m}, nil
}

// Routes builds the handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/upload-stock-data", s.instrument("upload", s.handleUpload))
	mux.Handle("POST /api/predict", s.instrument("predict", s.handlePredict))
	mux.Handle("GET /api/download-forecast/{id}", s.instrument("download", s.handleDownload))
	mux.Handle("GET /api/predictions", s.instrument("predictions", s.handleListPredictions))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.withCORS(mux)
}

// Run serves HTTP until the context is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"port": s.cfg.Port})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info(context.Background(), "Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
