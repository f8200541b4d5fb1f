package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edachat/backend/docs" // swagger docs
	"github.com/edachat/backend/internal/infrastructure/config"
	"github.com/edachat/backend/internal/infrastructure/log"
	"github.com/edachat/backend/internal/infrastructure/singleton"
	"github.com/edachat/backend/internal/interfaces/http/handler"
	"github.com/edachat/backend/internal/interfaces/http/middleware"
	"github.com/edachat/backend/internal/interfaces/mcp"
)

// HTTPServer is the REST, websocket and MCP front end.
type HTTPServer struct {
	router          *gin.Engine
	httpPort        string
	shutdownTimeout time.Duration
	server          *http.Server
	logger          *slog.Logger
}

// NewServer creates the HTTP server and registers every route.
func NewServer(
	cfg *config.ServerConfig,
	sessionHandler *handler.SessionHandler,
	eventsHandler *handler.EventsHandler,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.EnsureUTF8Body())

	api := router.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Open)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.DELETE("/:id", sessionHandler.Clear)
			sessions.POST("/:id/ask", sessionHandler.Ask)
			sessions.GET("/:id/messages", sessionHandler.Messages)
			sessions.GET("/:id/suggestions", sessionHandler.Suggestions)
			sessions.GET("/:id/history", sessionHandler.History)
			sessions.GET("/:id/codes", sessionHandler.Codes)
			sessions.GET("/:id/events", eventsHandler.Stream)
		}
		api.GET("/users/:user_id/sessions", sessionHandler.UserSessions)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": singleton.ServiceName})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:          router,
		httpPort:        cfg.HTTPPort,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          log.NewModuleLogger("http", "server"),
	}
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown. It returns nil after a graceful shutdown.
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:              s.httpPort,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("HTTP server starting", "port", s.httpPort)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop shuts down within the configured timeout.
func (s *HTTPServer) Stop() error {
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}
