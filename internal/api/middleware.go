package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RoleHeader carries the dashboard's client-side role flag. The value is
// unsigned and is only recorded, never used to allow or deny a request.
const RoleHeader = "X-User-Role"

const roleKey = "role"

// RoleHint copies the client role flag into the request context for logging.
func RoleHint() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetHeader(RoleHeader); role != "" {
			c.Set(roleKey, role)
		}
		c.Next()
	}
}

// RequestLogger logs one structured entry per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if role, ok := c.Get(roleKey); ok {
			fields["role"] = role
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
