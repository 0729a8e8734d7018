package controllers

import (
	"net/http"
	"strings"

	"brilliox/leadhunter-backend/internal/auth"
	"brilliox/leadhunter-backend/internal/dto"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthRequired for downstream handlers.
const (
	CtxUserID = "userID"
	CtxRole   = "role"
)

// AuthRequired validates the bearer token and stores the caller's identity
// on the gin context.
func AuthRequired(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "missing bearer token",
			})
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "invalid or expired token",
			})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// WriteRequired rejects read-only roles. Must run after AuthRequired.
func WriteRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !dto.CanWrite(c.GetString(CtxRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error: "role is read-only",
			})
			return
		}
		c.Next()
	}
}

// AdminRequired restricts a route to admin-capable roles. Must run after
// AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !dto.IsAdmin(c.GetString(CtxRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error: "admin role required",
			})
			return
		}
		c.Next()
	}
}
