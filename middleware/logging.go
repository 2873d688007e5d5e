package middleware

import (
	"net/http"
	"time"

	"go-storefront/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestLogger tags every request with an id, puts a child of base carrying
// that id on the request context and writes one access line per request.
// Panics in later handlers are logged and answered with 500.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			logger := base.With().Str("request_id", reqID).Logger()
			r = r.WithContext(logger.WithContext(r.Context()))
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			defer func() {
				if p := recover(); p != nil {
					logger.Error().Interface("panic", p).Str("path", r.URL.Path).Msg("handler panicked")
					if rec.status == 0 {
						utils.WriteMessage(rec, http.StatusInternalServerError, "Internal Server Error")
					}
				}
				status := rec.status
				if status == 0 {
					status = http.StatusOK
				}
				logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", rec.bytes).
					Dur("duration", time.Since(start)).
					Msg("request")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
