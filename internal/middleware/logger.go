package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 请求日志中间件（静态资源不记录）
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// 处理请求
		c.Next()

		if strings.HasPrefix(path, "/static/") {
			return
		}

		// 记录日志
		latency := time.Since(start)
		status := c.Writer.Status()
		user := GetUserID(c)
		if user == "" {
			user = "-"
		}

		log.Printf("[%s] %s %s user=%s %d %v",
			c.Request.Method,
			path,
			c.ClientIP(),
			user,
			status,
			latency,
		)
	}
}
