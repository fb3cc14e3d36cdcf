package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
	ws "github.com/ikkim/coupang-partners-backend/internal/websocket"
)

// EventsController 파이프라인 이벤트 실시간 스트림
type EventsController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewEventsController allowedOrigins 가 비어 있으면 Origin 검사를 하지 않는다
func NewEventsController(hub *ws.Hub, allowedOrigins []string) *EventsController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &EventsController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				return allowed[origin] || allowed["*"]
			},
		},
	}
}

// Stream WebSocket 업그레이드 후 허브에 등록
// GET /api/v1/events/ws
func (ctrl *EventsController) Stream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	username, _ := middleware.GetUsername(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection", err, map[string]interface{}{
			"username": username,
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, username)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
