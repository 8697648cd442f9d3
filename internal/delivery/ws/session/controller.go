package ws_session

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	usecase_session "github.com/partydeck/core/internal/usecase/session"
)

type Controller struct {
	hub      *Hub
	sessions *usecase_session.Usecase
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewController(hub *Hub, sessions *usecase_session.Usecase) *Controller {
	return &Controller{
		hub:      hub,
		sessions: sessions,
		logger:   slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// auth fronted by the reverse proxy
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.serve)
}

func (c *Controller) serve(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:      c.hub,
		sessions: c.sessions,
		conn:     conn,
		send:     make(chan Event, 64),
		logger:   c.logger,
		id:       uuid.NewString(),
	}
	c.hub.register <- client

	go client.writePump()
	go client.readPump()
}
