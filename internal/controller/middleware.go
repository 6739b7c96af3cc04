package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nexdrive/scheduler/internal/model"
	"github.com/nexdrive/scheduler/internal/service"
	"go.uber.org/zap"
)

const actorKey = "actor"

// Claims токен выдаёт внешний identity provider: sub = id профиля, role = роль
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware проверяет Bearer JWT (HS256) и кладёт service.Actor в контекст
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization token not provided")
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			unauthorized(c, "invalid or expired token")
			return
		}

		profileID, err := uuid.Parse(claims.Subject)
		if err != nil {
			unauthorized(c, "invalid subject in token")
			return
		}
		role := model.Role(claims.Role)
		if !role.Valid() {
			unauthorized(c, "invalid role in token")
			return
		}

		c.Set(actorKey, service.Actor{ProfileID: profileID, Role: role})
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "code": "unauthorized"})
}

// actorFrom достаёт вызывающего, положенного AuthMiddleware
func actorFrom(c *gin.Context) (service.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := value.(service.Actor)
	return actor, ok
}

// RequestLogger логирует каждый запрос
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}
