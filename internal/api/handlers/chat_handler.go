package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/services"
	"github.com/yoockh/slife/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	CreatedAt string        `json:"created_at"`
	Turns     []models.Turn `json:"turns"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "invalid request body", err))
		return
	}
	c.Set("session_id", req.SessionID)

	answer, err := h.svc.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Response: answer})
}

func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Param("session_id")
	c.Set("session_id", sessionID)

	rec, err := h.svc.History(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{
		SessionID: rec.SessionID,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		Turns:     rec.Turns,
	})
}
