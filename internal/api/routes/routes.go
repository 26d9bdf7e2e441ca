package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/slife/internal/api/handlers"
)

type Deps struct {
	Health *handlers.HealthHandler
	Chat   *handlers.ChatHandler
	WS     *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/", d.Health.Root)
	r.GET("/ping", d.Health.Ping)
	r.GET("/healthz", d.Health.Healthz)

	r.POST("/chat", d.Chat.Chat)
	r.GET("/chat/:session_id/history", d.Chat.History)

	r.GET("/ws/chat", d.WS.Chat)
}
