// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"net/http"
	"strings"
	"time"

	"fashion-muse-go/pkg/log"

	"github.com/gin-gonic/gin"
)

const maxLoggedBody = 512

// bodyLogWriter 用于捕获 JSON 响应体，HTML 页面只记录长度。
type bodyLogWriter struct {
	gin.ResponseWriter
	body  strings.Builder
	bytes int
}

// Write 同时写入 gin.ResponseWriter 和内部缓冲
func (w *bodyLogWriter) Write(b []byte) (int, error) {
	w.bytes += len(b)
	if w.body.Len() < maxLoggedBody && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger 是一个 Gin 中间件，用于记录每个请求的摘要信息。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		blw := &bodyLogWriter{ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// 查询既可能来自表单也可能来自 URL 参数
		query := c.PostForm("query")
		if query == "" {
			query = c.Query("query")
		}

		responseBody := blw.body.String()
		if len(responseBody) > maxLoggedBody {
			responseBody = responseBody[:maxLoggedBody] + "…"
		}

		logw := log.Infow
		if c.Writer.Status() >= http.StatusInternalServerError {
			logw = log.Warnw
		}
		logw("HTTP Request Log",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"sessionID", SessionID(c),
			"query", query,
			"responseBytes", blw.bytes,
			"responseBody", responseBody,
		)
	}
}
