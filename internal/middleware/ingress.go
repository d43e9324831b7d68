package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IngressThrottle 全局令牌桶限流
//
// 挂在不要求认证的路由（登录、健康检查之外的公开接口）上，
// 在固定窗口限流之前先挡住洪峰。与按身份计数的限流器不同，
// 这里是整个实例共享一个桶。
func IngressThrottle(ratePerSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
