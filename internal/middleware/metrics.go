package middleware

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/metrics"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Metrics records latency and error counts per route pattern.
func Metrics(m *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(routePattern(r), r.Method, status, time.Since(start))
		})
	}
}
