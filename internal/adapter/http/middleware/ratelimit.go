package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
	"boostgate/pkg/response"
)

// RateLimitRule defines a fixed-window limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules returns the per-group request limits.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"auth_register": {Limit: 5, Window: time.Hour},
		"auth_login":    {Limit: 10, Window: time.Minute},
		"orders":        {Limit: 60, Window: time.Minute},
		"catalog":       {Limit: 120, Window: time.Minute},
		"wallet":        {Limit: 60, Window: time.Minute},
		"deposits":      {Limit: 20, Window: time.Minute},
		"admin":         {Limit: 120, Window: time.Minute},
	}
}

// RateLimiter enforces a per-client request limit for one endpoint group.
// Authenticated requests are keyed by user, anonymous ones by client IP.
// A limiter backend failure degrades open.
func RateLimiter(limiter ports.AttemptLimiter, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("http:%s:%s", group, clientIdentifier(c))

		allowed, err := limiter.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request")
			c.Next()
			return
		}
		if !allowed {
			response.Error(c, apperror.ErrTooManyAttempts())
			c.Abort()
			return
		}
		c.Next()
	}
}

func clientIdentifier(c *gin.Context) string {
	if v, exists := c.Get(CtxUserID); exists {
		return fmt.Sprintf("%v", v)
	}
	return c.ClientIP()
}
