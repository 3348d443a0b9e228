// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sportconnect-go/internal/middleware"
)

// 错误响应沿用前端已有的 {"detail": "..."} 结构。
func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// authorizeUser 在启用认证时要求 token 中的用户与请求的用户一致。
func authorizeUser(c *gin.Context, userID string) bool {
	caller, ok := middleware.CallerID(c)
	if !ok || caller == userID {
		return true
	}
	abortWithDetail(c, http.StatusForbidden, "Accès refusé pour cet utilisateur.")
	return false
}

func health(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": service})
	}
}
