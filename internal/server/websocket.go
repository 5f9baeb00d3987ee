package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atikulmunna/quill/internal/hub"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamChannel maps the ?channel= query value to a hub channel.
func streamChannel(q string) (hub.Channel, bool) {
	switch q {
	case "", "broadcast":
		return hub.Broadcast, true
	case "every":
		return hub.EveryLog, true
	case "debug":
		return hub.DebugMirror, true
	default:
		return "", false
	}
}

// handleWebSocket upgrades to WebSocket and streams events as JSON. Slow
// clients lose events rather than stall publishers.
func (s *Server) handleWebSocket(c *gin.Context) {
	ch, ok := streamChannel(c.Query("channel"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel " + c.Query("channel")})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := s.dispatch.Hub().Subscribe(ch, 256)
	defer cancel()

	// Read pump: detect client disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for ev := range events {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			s.log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}
