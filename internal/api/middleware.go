package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/service"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const identityKey = "identity"

// AuthMiddleware resolves the bearer token into an Identity and stores it on the context.
// Only a rejected token is a 401; store failures keep their own status.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the JWT token from the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		// Check if the Authorization header starts with "Bearer "
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token format")
			return
		}

		id, err := h.svc.Authenticate(c.Request.Context(), parts[1])
		if errors.Is(err, service.ErrUnauthenticated) {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// identityFrom returns the caller set by AuthMiddleware, or the empty
// identity on public routes.
func identityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}

// RequestLogger logs one line per request with method, route, status and latency.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			zap.String("remote", c.ClientIP()),
		}
		if id := identityFrom(c); id.Username != "" {
			fields = append(fields, zap.String("user", id.Username))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("http request", fields...)
			return
		}
		logger.Debug("http request", fields...)
	}
}

// LoginRateLimit is a token bucket per client IP. perMinute <= 0 disables it.
func LoginRateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	type bucket struct {
		lim *rate.Limiter
		ts  time.Time
	}
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		ttl       = 5 * time.Minute
		lastPrune = time.Now()
	)

	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastPrune) > time.Minute {
			for k, b := range buckets {
				if now.Sub(b.ts) > ttl {
					delete(buckets, k)
				}
			}
			lastPrune = now
		}

		b, ok := buckets[ip]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)}
			buckets[ip] = b
		}
		b.ts = now
		return b.lim.Allow()
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !allow(ip) {
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many login attempts, try again later")
			return
		}
		c.Next()
	}
}
