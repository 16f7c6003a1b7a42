package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// Timeout returns middleware that sets a request deadline. Handlers observe it
// through the request context; the store and the remote client both do.
// When the deadline passes before anything was written, the request is
// answered with the TIMEOUT envelope.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}

		logging.FromContext(ctx).Warn("request timeout",
			slog.String("path", c.Request.URL.Path),
			slog.Duration("timeout", timeout),
		)

		dto.AbortWithErrorCode(c, dto.ErrorCodeTimeout, "request timeout exceeded")
	}
}
