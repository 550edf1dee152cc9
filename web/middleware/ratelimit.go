package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mapavioleta/mapavioleta/logger"
	"github.com/mapavioleta/mapavioleta/util/common"
	"github.com/mapavioleta/mapavioleta/web/cache"
	"github.com/mapavioleta/mapavioleta/web/entity"
	"github.com/mapavioleta/mapavioleta/web/locale"
)

// RateLimitConfig configures a fixed-window request counter kept in Redis.
type RateLimitConfig struct {
	Requests  int
	Window    time.Duration
	KeyFunc   func(c *gin.Context) string
	SkipPaths []string
}

// DefaultRateLimitConfig allows 60 requests per minute per client IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: 60,
		Window:   time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
		SkipPaths: []string{"/static/", "/favicon.ico"},
	}
}

// AuthRateLimitConfig throttles login and registration attempts.
func AuthRateLimitConfig() RateLimitConfig {
	cfg := DefaultRateLimitConfig()
	cfg.Requests = 10
	return cfg
}

func (config RateLimitConfig) shouldSkip(path string) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// RateLimitMiddleware rejects requests beyond the configured budget with
// 429. When Redis is unavailable requests are let through.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.shouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}

		key := config.KeyFunc(c)
		rateLimitKey := "ratelimit:" + key + ":" + c.FullPath()

		count, ttl, err := cache.IncrWindow(c.Request.Context(), rateLimitKey, config.Window)
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}

		remaining := config.Requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if int(count) > config.Requests {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, c.Request.URL.Path, count)
			code, _ := common.CodeOf(common.ErrRateLimited)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, entity.Msg{
				Success: false,
				Error:   locale.I18n(c, "error."+code),
				Code:    code,
			})
			return
		}

		c.Next()
	}
}
