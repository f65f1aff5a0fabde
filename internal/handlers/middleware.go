package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// WithLogging logs every request and records it in m, labelled by route pattern.
func WithLogging(next http.Handler, m *metrics.Metrics, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r = httpx.WithLogger(r, log)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.APIRequest(r.Method, route, rec.status, elapsed)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed,
		}).Info("request")
	})
}

// Health pings the database.
func Health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			httpx.JSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		httpx.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
