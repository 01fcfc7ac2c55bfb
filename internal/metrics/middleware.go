package metrics

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// ChainMiddleware wraps h so that mw[0] runs first.
func ChainMiddleware(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	chained := h
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

// LoggingMiddleware logs each scrape at debug level.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("elapsed", time.Since(start)).
				Msg("metrics request")
		})
	}
}

// RecoverMiddleware turns a panicking handler into a 500.
func RecoverMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().Interface("panic", rec).Str("stack", string(debug.Stack())).Msg("metrics handler panicked")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
