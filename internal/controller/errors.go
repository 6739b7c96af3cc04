package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexdrive/scheduler/internal/service"
	"go.uber.org/zap"
)

// statusFor HTTP-статус для класса доменной ошибки
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInvalidInput, service.KindLateCancellation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет ошибку в формате {"error", "code"}; детали внутренних ошибок только в лог
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("kind", kind.String()),
			zap.Error(err))
		if kind == service.KindDependencyUnavailable {
			message = service.ErrStoreUnavailable.Msg
		} else {
			message = "internal error"
		}
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": service.CodeOf(err)})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "code": service.ErrInvalidInput.Code})
}
