package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// TimeoutMessage is the error text of a request that ran out of time.
const TimeoutMessage = "request processing exceeded the allowed time limit"

// RequestTimeout sets a deadline on each request's context. The handler runs
// on the request goroutine and stops when its Google, database or settle
// waits observe the deadline. If it then returns the deadline error without
// having written a response, the caller gets a 504 with an {"error": ...}
// body.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err == nil || c.Response().Committed {
				return err
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return c.JSON(http.StatusGatewayTimeout, map[string]string{"error": TimeoutMessage})
			}
			return err
		}
	}
}
