package middleware

import (
	"net/http"
	"strings"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/pkg"
	"Jazz_Forum/internal/repository/redis"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

// AuthMiddleware 校验 Bearer token 且与 Redis 中的会话一致
func AuthMiddleware(sessions *redis.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "invalid authorization format")
			return
		}
		tokenStr := parts[1]

		claims, err := pkg.ParseAccess(tokenStr)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		// redis校验是否是正确的token
		origin, err := sessions.GetUserToken(c.Request.Context(), claims.UserID)
		if err != nil || origin != tokenStr {
			unauthorized(c, "session expired or signed in elsewhere")
			return
		}

		// 校验通过后更新过期时间
		if err = sessions.ExtendUserToken(c.Request.Context(), claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// ActorFrom 取出登录态；未经过鉴权中间件时返回零值
func ActorFrom(c *gin.Context) lifecycle.Actor {
	var a lifecycle.Actor
	if v, ok := c.Get(ContextUserIDKey); ok {
		a.ID, _ = v.(uint64)
	}
	if v, ok := c.Get(ContextRoleKey); ok {
		a.Role, _ = v.(string)
	}
	return a
}
