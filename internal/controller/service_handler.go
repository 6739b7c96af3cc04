package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/service"
	"go.uber.org/zap"
)

// CatalogUseCase реализуется service.CatalogService
type CatalogUseCase interface {
	ListServices(ctx context.Context, instructorID uuid.UUID) ([]*model.Service, error)
	CreateService(ctx context.Context, actor service.Actor, input service.ServiceInput) (*model.Service, error)
}

type ServiceHandler struct {
	catalog CatalogUseCase
	logger  *zap.Logger
}

func NewServiceHandler(catalog CatalogUseCase, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{catalog: catalog, logger: logger}
}

func (h *ServiceHandler) Register(public, protected *gin.RouterGroup) {
	public.GET("/services", h.list)
	protected.POST("/services", h.create)
}

func (h *ServiceHandler) list(c *gin.Context) {
	instructorID := uuid.Nil
	if raw := c.Query("instructorId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "instructorId must be a UUID")
			return
		}
		instructorID = id
	}

	services, err := h.catalog.ListServices(c.Request.Context(), instructorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (h *ServiceHandler) create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	var req service.ServiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	created, err := h.catalog.CreateService(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"service": created})
}
