package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StartupState exposes the outcome of service construction.
type StartupState interface {
	Ready() bool
	DocumentCount() int
	StartupError() error
}

type HealthHandler struct {
	state   StartupState
	version string
}

func NewHealthHandler(state StartupState, version string) *HealthHandler {
	return &HealthHandler{state: state, version: version}
}

func (h *HealthHandler) Root(c *gin.Context) {
	status := "online"
	if !h.state.Ready() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"version": h.version,
		"message": "SLife API - assistente de moradia universitária",
	})
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	if !h.state.Ready() {
		body := gin.H{"ready": false}
		if err := h.state.StartupError(); err != nil {
			body["error"] = toAPIError(err)
		}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "documents": h.state.DocumentCount()})
}
