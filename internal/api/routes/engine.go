package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/slife/internal/api/handlers"
	"github.com/yoockh/slife/internal/api/middleware"
	"github.com/yoockh/slife/internal/services"
)

type EngineOptions struct {
	Version        string
	AllowedOrigins []string
}

// NewEngine builds the gin engine with middleware and every route mounted.
func NewEngine(svc services.ChatService, state handlers.StartupState, opts EngineOptions, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	RegisterRoutes(r, Deps{
		Health: handlers.NewHealthHandler(state, opts.Version),
		Chat:   handlers.NewChatHandler(svc),
		WS:     handlers.NewWSHandler(svc, middleware.OriginAllower(opts.AllowedOrigins), log),
	})
	return r
}
