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

// AvailabilityUseCase реализуется service.AvailabilityService
type AvailabilityUseCase interface {
	ResolveAvailability(ctx context.Context, instructorID uuid.UUID, date string) (*service.DayAvailability, error)
	CreateRule(ctx context.Context, actor service.Actor, input service.RuleInput) (*model.AvailabilityRule, error)
	DeactivateRule(ctx context.Context, actor service.Actor, ruleID uuid.UUID) error
	SetOverride(ctx context.Context, actor service.Actor, input service.OverrideInput) (*model.AvailabilityOverride, error)
}

type AvailabilityHandler struct {
	service AvailabilityUseCase
	logger  *zap.Logger
}

func NewAvailabilityHandler(service AvailabilityUseCase, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, logger: logger}
}

// Register public без авторизации, protected за AuthMiddleware
func (h *AvailabilityHandler) Register(public, protected *gin.RouterGroup) {
	public.GET("/availability", h.get)
	protected.POST("/availability/rules", h.createRule)
	protected.DELETE("/availability/rules/:id", h.deactivateRule)
	protected.POST("/availability/overrides", h.setOverride)
}

func (h *AvailabilityHandler) get(c *gin.Context) {
	rawInstructorID := c.Query("instructorId")
	date := c.Query("date")
	if rawInstructorID == "" || date == "" {
		badRequest(c, "instructorId and date are required")
		return
	}
	instructorID, err := uuid.Parse(rawInstructorID)
	if err != nil {
		badRequest(c, "instructorId must be a UUID")
		return
	}

	availability, err := h.service.ResolveAvailability(c.Request.Context(), instructorID, date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}

func (h *AvailabilityHandler) createRule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	var req service.RuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

func (h *AvailabilityHandler) deactivateRule(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "rule id must be a UUID")
		return
	}

	if err := h.service.DeactivateRule(c.Request.Context(), actor, ruleID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AvailabilityHandler) setOverride(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	var req service.OverrideInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	override, err := h.service.SetOverride(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"override": override})
}
