package http_pack

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/partydeck/core/internal/delivery/http/common"
	infra_postgres_pack "github.com/partydeck/core/internal/infra/postgres/pack"
	"github.com/partydeck/core/internal/model"
)

// PackSummaryDTO lists a pack without its questions.
type PackSummaryDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

type PacksListResponseDTO struct {
	Packs []PackSummaryDTO `json:"packs"`
	Total int              `json:"total"`
}

func ConvertFromPackList(packs []model.Pack) []PackSummaryDTO {
	out := make([]PackSummaryDTO, len(packs))
	for i, p := range packs {
		out[i] = PackSummaryDTO{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			QuestionCount: len(p.Questions),
		}
	}
	return out
}

type Controller struct {
	packs *infra_postgres_pack.Repository

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(packs *infra_postgres_pack.Repository, opts ...ControllerOption) *Controller {
	c := &Controller{
		packs:  packs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	packs := router.Group("/packs")
	packs.GET("", c.getPacks)
	packs.GET("/:pack_id", c.getPack)
}

func (c *Controller) getPacks(ctx *gin.Context) {
	packs, err := c.packs.LoadAll(ctx.Request.Context())
	if err != nil {
		c.logger.Error("failed to load packs", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error: "Failed to load packs",
			Code:  http.StatusInternalServerError,
		})
		return
	}

	ctx.JSON(http.StatusOK, PacksListResponseDTO{
		Packs: ConvertFromPackList(packs),
		Total: len(packs),
	})
}

func (c *Controller) getPack(ctx *gin.Context) {
	packID := ctx.Param("pack_id")

	pack, err := c.packs.LoadByID(ctx.Request.Context(), packID)
	if err != nil {
		if errors.Is(err, infra_postgres_pack.ErrPackNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Error: "Pack not found",
				Code:  http.StatusNotFound,
			})
			return
		}
		c.logger.Error("failed to load pack",
			slog.String("error", err.Error()),
			slog.String("pack_id", packID),
		)
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Error: "Failed to load pack",
			Code:  http.StatusInternalServerError,
		})
		return
	}

	ctx.JSON(http.StatusOK, pack)
}
