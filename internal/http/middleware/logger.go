package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"paperapi/internal/logger"
)

// Logger is a middleware that logs each HTTP request as one JSON line.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - error when a handler recorded one under ErrorLocalKey
// - trace_id when the request carries a span
func Logger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		if err != nil {
			// The app ErrorHandler writes the response after the chain returns.
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		evt := log.Info()
		if status >= fiber.StatusInternalServerError {
			evt = log.Error()
		}
		evt = evt.
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000)
		if msg, ok := c.Locals(ErrorLocalKey).(string); ok && msg != "" {
			evt = evt.Str("error", msg)
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
			evt = evt.Str("trace_id", sc.TraceID().String())
		}
		evt.Send()

		return err
	}
}

// ErrorLocalKey holds an internal error message for the access log. It is never
// sent to the client.
const ErrorLocalKey = "error"

// LoggerWithWriter builds a Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.New(w, "info", loc))
}
