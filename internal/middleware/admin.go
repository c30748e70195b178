package middleware

import (
	"net/http"

	"fitcommunity/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired guards maintenance endpoints (counter reconciliation, pull checks).
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
