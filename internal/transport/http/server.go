package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/laibajaved880/team-chat/internal/auth"
	"github.com/laibajaved880/team-chat/internal/config"
	"github.com/laibajaved880/team-chat/internal/core"
	"github.com/laibajaved880/team-chat/internal/store"
)

// NewServer builds the HTTP server with the REST API and WebSocket routes.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger), CORSMiddleware())

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, st, hub, logger, cfg.HistoryLimit, cfg.LoginRateLimit)
	api := router.Group("/api")
	api.POST("/login", apiHandlers.Login)
	api.GET("/rooms", apiHandlers.ListRooms)
	api.GET("/messages", apiHandlers.ListMessages)
	api.GET("/online", apiHandlers.Online)

	wsHandler := NewWSHandler(hub, authService, st, logger)
	router.GET("/ws/:room", wsHandler.Serve)

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	stop := make(chan struct{})
	apiHandlers.loginLimiter.startReset(stop)
	server.RegisterOnShutdown(func() { close(stop) })

	return server
}

func healthHandler(c *gin.Context) {
	fmt.Fprint(c.Writer, "ok")
}
