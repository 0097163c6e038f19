package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/platform/logger"
	"go.uber.org/zap"
)

// ErrorHandler converts errors attached by handlers into RFC 9457 problem
// responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if problem, ok := err.(*domain.Problem); ok {
			// if there is an internal log attached, log it
			if problem.Log != nil {
				logger.Error("Internal error", zap.Error(problem.Log), zap.String("path", c.Request.URL.Path))
			}

			// RFC 9457 dictates the json is at the root
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		// unknown error, catch-all 500
		logger.Error("Unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))

		c.JSON(http.StatusInternalServerError, domain.New(
			http.StatusInternalServerError,
			"Internal Server Error",
			"An unexpected error occurred.",
		))
		c.Abort()
	}
}
