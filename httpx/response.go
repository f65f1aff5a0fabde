// Package httpx writes the JSON bodies of the API.
package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request. Code is stable (a validation
// state or an error kind), Message is localized for the caller.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type loggerKey struct{}

var discard = &logrus.Logger{Out: io.Discard, Formatter: new(logrus.TextFormatter), Hooks: make(logrus.LevelHooks), Level: logrus.PanicLevel}

// WithLogger returns r carrying log; JSON reports write failures to it.
func WithLogger(r *http.Request, log logrus.FieldLogger) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), loggerKey{}, log))
}

// Logger returns the logger attached by WithLogger, or one that drops everything.
func Logger(r *http.Request) logrus.FieldLogger {
	if log, ok := r.Context().Value(loggerKey{}).(logrus.FieldLogger); ok {
		return log
	}
	return discard
}

func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	log := Logger(r).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status})
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			log.WithError(err).Error("response encoding failed")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"code":"encode_error","message":"response could not be encoded"}`)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// the client is usually gone; the status line is already out
		log.WithError(err).Warn("response write failed")
	}
}

// Error answers status with an ErrorResponse.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	JSON(w, r, status, ErrorResponse{Code: code, Message: message, Details: details})
}
