package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jeanpaul/sakemate/internal/logging"
	"github.com/jeanpaul/sakemate/internal/metrics"
)

type middlewares struct {
	cors      func(http.Handler) http.Handler
	rateLimit func(http.Handler) http.Handler
}

func newMiddlewares(opts Options) *middlewares {
	m := &middlewares{
		cors: cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         86400,
		}),
	}

	if opts.RateLimitRequests <= 0 {
		m.rateLimit = func(next http.Handler) http.Handler { return next }
	} else {
		m.rateLimit = httprate.Limit(
			opts.RateLimitRequests,
			opts.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", nil)
			}),
		)
	}
	return m
}

// requestLogger carries chi's request id into the logging context, echoes
// it back to the client, and logs and counts every request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := chimiddleware.GetReqID(r.Context())
		if id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		ctx := logging.WithRequestID(r.Context(), id)
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status/100)+"xx").Inc()

		ev := logging.Ctx(ctx).Info()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(ctx).Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
