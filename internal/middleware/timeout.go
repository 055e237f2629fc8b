package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds a handler with http.TimeoutHandler. It must not wrap routes that
// hijack the connection.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	const message = `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
