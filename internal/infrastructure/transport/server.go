// Package transport serves graph views over HTTP and WebSocket.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	app_service "crypto-bubble-map-explorer/internal/application/service"
	"crypto-bubble-map-explorer/internal/infrastructure/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HealthFunc reports dependency health by name
type HealthFunc func(ctx context.Context) map[string]bool

// ServerConfig holds the HTTP settings
type ServerConfig struct {
	Port         int
	MetricsPath  string
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// Server exposes the view manager over HTTP
type Server struct {
	cfg      ServerConfig
	views    *app_service.ViewManager
	metrics  http.Handler
	health   HealthFunc
	logger   *logger.Logger
	router   *mux.Router
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewServer creates the HTTP server. metrics and health may be nil.
func NewServer(cfg ServerConfig, views *app_service.ViewManager, metrics http.Handler, health HealthFunc, logger *logger.Logger) *Server {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}

	s := &Server{
		cfg:     cfg,
		views:   views,
		metrics: metrics,
		health:  health,
		logger:  logger.WithComponent("http-server"),
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle(s.cfg.MetricsPath, s.metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/views", s.handleCreateView).Methods(http.MethodPost)
	r.HandleFunc("/views", s.handleListViews).Methods(http.MethodGet)
	r.HandleFunc("/views/{id}", s.handleCloseView).Methods(http.MethodDelete)

	v := r.PathPrefix("/views/{id}").Subrouter()
	v.HandleFunc("/frame", s.handleFrame).Methods(http.MethodGet)
	v.HandleFunc("/nodes", s.handleListNodes).Methods(http.MethodGet)
	v.HandleFunc("/nodes", s.handleAddNode).Methods(http.MethodPost)
	v.HandleFunc("/nodes/{nodeID}", s.handleRemoveNode).Methods(http.MethodDelete)
	v.HandleFunc("/nodes/{nodeID}/lock", s.handleToggleLock).Methods(http.MethodPost)
	v.HandleFunc("/nodes/{nodeID}/position", s.handleUpdatePosition).Methods(http.MethodPut)
	v.HandleFunc("/nodes/{nodeID}/expand", s.handleExpand).Methods(http.MethodPost)
	v.HandleFunc("/select", s.handleSelect).Methods(http.MethodPost)
	v.HandleFunc("/hover", s.handleHover).Methods(http.MethodPost)
	v.HandleFunc("/reorganize", s.handleReorganize).Methods(http.MethodPost)
	v.HandleFunc("/pointer", s.handlePointer).Methods(http.MethodPost)
	v.HandleFunc("/camera", s.handleCamera).Methods(http.MethodPost)
	v.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	r.Use(s.logRequests)
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server started", zap.String("addr", listener.Addr().String()))
	return nil
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
