package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"boostgate/internal/core/ports"
	"boostgate/pkg/apperror"
	"boostgate/pkg/response"
)

// Context keys set by the auth middleware.
const (
	CtxUserID     = "user_id"
	CtxTokenID    = "token_id"
	CtxIsAdmin    = "is_admin"
	CtxSessionKey = "session"
	CtxRequestID  = "request_id"
)

// RequestID assigns every request an ID for log correlation, honoring a
// client-provided X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// SessionAuth validates the bearer token and resolves its server-side
// session. A token whose session record was deleted is rejected even if the
// JWT itself is still within its expiry.
func SessionAuth(tokens ports.TokenService, sessions ports.SessionStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		claims, err := tokens.Validate(authHeader[7:])
		if err != nil {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		session, err := sessions.Get(c.Request.Context(), claims.TokenID)
		if err != nil {
			log.Error().Err(err).Msg("session lookup failed")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if session == nil {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxUserID, session.UserID)
		c.Set(CtxTokenID, session.TokenID)
		c.Set(CtxIsAdmin, session.IsAdmin)
		c.Set(CtxSessionKey, session)
		c.Next()
	}
}

// AdminOnly must run after SessionAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			response.Error(c, apperror.ErrAdminOnly())
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID reads the authenticated user's ID from the context.
func UserID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(CtxUserID); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// TokenID reads the session token ID from the context.
func TokenID(c *gin.Context) string {
	return c.GetString(CtxTokenID)
}

// RequestLogger logs every HTTP request with latency and status.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery converts panics into 500 responses.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize rejects request bodies beyond limit bytes.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
