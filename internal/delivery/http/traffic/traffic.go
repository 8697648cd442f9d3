package http_traffic

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	service_traffic "github.com/partydeck/core/internal/service/traffic"
)

type Controller struct {
	monitor *service_traffic.Monitor

	logger *slog.Logger
}

func New(monitor *service_traffic.Monitor) *Controller {
	return &Controller{
		monitor: monitor,
		logger:  slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/traffic", c.getStatus)
}

func (c *Controller) getStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.monitor.Snapshot(ctx.Request.Context()))
}
