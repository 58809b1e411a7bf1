package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/apex/log"

	"modelarena/internal/gateway/respond"
)

// Recover turns a handler panic into a 500 INTERNAL_ERROR envelope.
func Recover(logger log.Interface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.WithFields(log.Fields{
					"request_id": RequestIDFrom(r.Context()),
					"panic":      fmt.Sprint(p),
					"stack":      string(debug.Stack()),
				}).Error("handler panicked")
				respond.Internal(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
