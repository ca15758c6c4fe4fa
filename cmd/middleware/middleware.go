package middleware

import (
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"concerthub/internal/dto"
)

// UserEmailKey is the context key the identity middleware stores the caller
// email under.
const UserEmailKey = "userEmail"

func LoggingMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()

		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}

// RequireUserEmail extracts the caller identity from the X-User-Email header.
// Authentication itself is out of scope; the gateway in front of the service
// is trusted to have verified the caller.
func RequireUserEmail() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		email := strings.TrimSpace(c.GetHeader("X-User-Email"))
		if email == "" {
			dto.BadResponseError(c, dto.FieldIncorrect, "X-User-Email header is required")
			c.Abort()
			return
		}
		c.Set(UserEmailKey, email)
		c.Next()
	}
}

// UserEmail reads the identity stored by RequireUserEmail.
func UserEmail(c *ginext.Context) string {
	return c.GetString(UserEmailKey)
}
