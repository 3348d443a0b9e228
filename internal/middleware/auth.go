// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sportconnect-go/pkg/token"
)

// ClaimsKey 是 gin 上下文中保存 *token.CustomClaims 的键。
const ClaimsKey = "claims"

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它从 Authorization 头中提取 Bearer token，验证通过后把 claims 存入上下文。
func AuthMiddleware(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "请求未包含授权头"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "无效的授权头格式"})
			return
		}

		claims, err := jwtManager.VerifyToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "无效或已过期的 token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CallerID 返回经过认证的调用者 ID；未启用认证时 ok 为 false。
func CallerID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return "", false
	}
	claims, ok := v.(*token.CustomClaims)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}
