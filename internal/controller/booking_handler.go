package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/service"
	"go.uber.org/zap"
)

// BookingUseCase реализуется service.BookingService
type BookingUseCase interface {
	CreateBooking(ctx context.Context, actor service.Actor, input service.CreateBookingInput) (*model.BookingDetails, error)
	UpdateBookingStatus(ctx context.Context, actor service.Actor, bookingID uuid.UUID, input service.StatusInput) (*model.BookingDetails, error)
	GetBooking(ctx context.Context, actor service.Actor, bookingID uuid.UUID) (*model.BookingDetails, error)
	ListBookings(ctx context.Context, actor service.Actor, limit, offset int) ([]*model.Booking, error)
}

type BookingHandler struct {
	service BookingUseCase
	logger  *zap.Logger
}

func NewBookingHandler(service BookingUseCase, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, logger: logger}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.PATCH("/bookings/:id", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	var req service.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

func (h *BookingHandler) list(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		badRequest(c, "offset must be an integer")
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), actor, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "booking id must be a UUID")
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		unauthorized(c, "authentication required")
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "booking id must be a UUID")
		return
	}

	var req service.StatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.service.UpdateBookingStatus(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// queryInt пустой параметр даёт 0
func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
