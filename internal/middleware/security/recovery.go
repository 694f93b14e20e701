package security

import (
	"net/http"
	"runtime/debug"

	"budgetwise/internal/log"
)

// Recovery turns a handler panic into a 500 JSON response and logs the stack.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panicked",
				"panic", rec,
				log.FieldPath, r.URL.Path,
				"stack", string(debug.Stack()))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"Internal server error"}`))
		}()
		next.ServeHTTP(w, r)
	})
}
