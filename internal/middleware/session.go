package middleware

import (
	"net/http"

	"fashion-muse-go/pkg/log"
	"fashion-muse-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionIDKey 是会话 ID 在 Gin 上下文中的键名。
const SessionIDKey = "sessionID"

// SessionOptions 控制会话 Cookie 的属性。
type SessionOptions struct {
	CookieName string
	MaxAge     int // 秒，0 表示浏览器会话 Cookie
	Secure     bool
}

// SessionMiddleware 从 Cookie 中恢复会话 ID。
// Cookie 缺失或验证失败时签发一个新的会话，并写回 Cookie。
func SessionMiddleware(jwtManager *token.JWTManager, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(opts.CookieName); err == nil && raw != "" {
			if claims, err := jwtManager.VerifyToken(raw); err == nil {
				c.Set(SessionIDKey, claims.SessionID)
				c.Next()
				return
			}
			log.Infof("[Session] 会话 Cookie 无效，签发新会话, clientIP: %s", c.ClientIP())
		}

		sessionID := uuid.NewString()
		signed, err := jwtManager.GenerateSessionToken(sessionID)
		if err != nil {
			log.Errorf("[Session] 签发会话令牌失败: %v", err)
		} else {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.CookieName, signed, opts.MaxAge, "/", "", opts.Secure, true)
		}
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// SessionID 返回当前请求的会话 ID；未经过 SessionMiddleware 时返回空串。
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
