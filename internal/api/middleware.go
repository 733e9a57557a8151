package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
)

// MetricsMiddleware records request counts and latency under a fixed endpoint label.
func MetricsMiddleware(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	}
}

// RequireSignedIn rejects requests while no cloud session is active and exposes the
// user id to handlers.
func RequireSignedIn(session *identity.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := session.CurrentUser()
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Sign in required")
			return
		}
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}
