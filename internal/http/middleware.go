package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adilzhan/auth-core/internal/domain"
	"github.com/adilzhan/auth-core/internal/helper"
	"github.com/adilzhan/auth-core/internal/log"
	"github.com/adilzhan/auth-core/internal/metrics"
	"github.com/adilzhan/auth-core/internal/security"
)

const authClaimsKey = "auth.claims"

// RequestID assigns a correlation id to every request, echoing a caller-
// provided one when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(helper.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// Observe records prometheus metrics and a zap access log line per request.
func Observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.InFlight.Inc()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		log.WithDD(c.Request.Context(), log.L).Info("request",
			zap.String("route", route),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", elapsed),
			zap.String("request_id", helper.RequestIDFrom(c.Request.Context())),
		)
	}
}

// AuthRequired verifies the Bearer access token and stores its claims on the
// context for handlers downstream.
func AuthRequired(tokens *security.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			fail(c, http.StatusUnauthorized, "TOKEN_MALFORMED", "missing bearer token")
			c.Abort()
			return
		}
		claims, err := tokens.Verify(strings.TrimPrefix(h, "Bearer "), domain.TokenTypeAccess)
		if err != nil {
			failErr(c, err)
			c.Abort()
			return
		}
		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *security.Claims {
	v, _ := c.Get(authClaimsKey)
	claims, _ := v.(*security.Claims)
	return claims
}
