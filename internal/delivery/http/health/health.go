package http_health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping() error
}

// PingFunc adapts a plain probe function to Pinger.
type PingFunc func() error

func (f PingFunc) Ping() error { return f() }

type Controller struct {
	store Pinger
	db    Pinger
}

func New(store, db Pinger) *Controller {
	return &Controller{store: store, db: db}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", c.healthz)
}

func (c *Controller) healthz(ctx *gin.Context) {
	checks := gin.H{"store": "ok", "db": "ok"}
	status := http.StatusOK

	if err := c.store.Ping(); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := c.db.Ping(); err != nil {
		checks["db"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	ctx.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}
