// Package handlers exposes the catalogs and document generation as a JSON API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/i18n"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
)

// maxBody bounds request bodies; templates travel base64 encoded.
const maxBody = 16 << 20

var errEmptyBody = errors.New("empty request body")

func lang(r *http.Request) string {
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}

// rejectState answers 422 with the localized message of a non valid state.
func rejectState(w http.ResponseWriter, r *http.Request, state validation.State) {
	status := http.StatusUnprocessableEntity
	if state == validation.NotFound {
		status = http.StatusNotFound
	}
	httpx.Error(w, r, status, string(state), i18n.T(lang(r), string(state)), nil)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httpx.Error(w, r, http.StatusNotFound, string(validation.NotFound), i18n.T(lang(r), string(validation.NotFound)), nil)
}

func serverError(w http.ResponseWriter, log logrus.FieldLogger, r *http.Request, err error) {
	log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	httpx.Error(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	httpx.Error(w, r, http.StatusBadRequest, "bad_request", err.Error(), nil)
}

func pathCode(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("code"), 10, 64)
}

func includeDeleted(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("deleted"))
	return v
}

// rejectViolations answers 422 with one localized message per field.
func rejectViolations(w http.ResponseWriter, r *http.Request, v validation.Violations) {
	l := lang(r)
	fields := make(map[string]string, len(v))
	for field, code := range v {
		fields[field] = i18n.T(l, code)
	}
	httpx.Error(w, r, http.StatusUnprocessableEntity, "validation_failed", i18n.T(l, "validation_failed"), fields)
}
