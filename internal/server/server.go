package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/searchsync-go/pkg/config"
	"github.com/searchsync-go/pkg/logger"
)

// Server hosts the admin API and the metrics endpoint.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	logger     logger.Logger
}

func New(cfg config.ServerConfig, handlers *Handlers, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/index/:id", handlers.IndexItem)
		api.DELETE("/index/:id", handlers.DeleteItem)
		api.POST("/rebuild", handlers.Rebuild)
		api.POST("/rebuild/background", handlers.StartBackgroundRebuild)
		api.GET("/rebuild/progress", handlers.RebuildProgress)
		api.DELETE("/rebuild/background", handlers.CancelRebuild)
		api.GET("/stats", handlers.Stats)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		},
		router: router,
		logger: log,
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("admin server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
