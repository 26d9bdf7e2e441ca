package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/slife/internal/services"
	"github.com/yoockh/slife/internal/utils"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsMaxFrame     = 16 << 10
)

type WSHandler struct {
	svc      services.ChatService
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewWSHandler accepts upgrades from origins allowed by allowOrigin.
func NewWSHandler(svc services.ChatService, allowOrigin func(origin string) bool, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(origin)
			},
		},
	}
}

type wsClientMsg struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type wsServerMsg struct {
	Type      string     `json:"type"` // response|error
	SessionID string     `json:"session_id,omitempty"`
	Response  string     `json:"response,omitempty"`
	Code      utils.Code `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteJSON(v)
}

// Chat serves GET /ws/chat. Each client frame is one exchange; frames of a
// connection are handled in order.
func (h *WSHandler) Chat(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	conn.SetReadLimit(wsMaxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			if !websocket.IsCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(rerr).Debug("ws read ended")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		answer, err := h.svc.Chat(ctx, msg.SessionID, msg.Message)
		if err != nil {
			h.log.WithField("session_id", msg.SessionID).WithError(err).Warn("ws chat failed")
			ae := toAPIError(err)
			if werr := wc.writeJSON(wsServerMsg{Type: "error", SessionID: msg.SessionID, Code: ae.Code, Message: ae.Message}); werr != nil {
				return
			}
			continue
		}
		if werr := wc.writeJSON(wsServerMsg{Type: "response", SessionID: msg.SessionID, Response: answer}); werr != nil {
			return
		}
	}
}
