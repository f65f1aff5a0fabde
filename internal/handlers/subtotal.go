package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/internal/services"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
)

type SubtotalHandler struct {
	svc *services.SubtotalService
	log logrus.FieldLogger
}

func NewSubtotalHandler(svc *services.SubtotalService, log logrus.FieldLogger) *SubtotalHandler {
	return &SubtotalHandler{svc: svc, log: log}
}

func (h *SubtotalHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/subtotals", h.List)
	mux.HandleFunc("POST /api/subtotals", h.Create)
	mux.HandleFunc("GET /api/subtotals/{code}", h.View)
	mux.HandleFunc("POST /api/subtotals/{code}/delete", h.Delete)
	mux.HandleFunc("POST /api/subtotals/{code}/restore", h.Restore)
}

func (h *SubtotalHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), includeDeleted(r))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, list)
}

func (h *SubtotalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.SubtotalInput
	if err := decode(r, &in); err != nil {
		badRequest(w, r, err)
		return
	}
	state, st, err := h.svc.Register(r.Context(), in)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if !state.OK() {
		rejectState(w, r, state)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, st)
}

func (h *SubtotalHandler) View(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r)
	if err != nil {
		notFound(w, r)
		return
	}
	st, err := h.svc.Find(r.Context(), code)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if st == nil {
		notFound(w, r)
		return
	}
	httpx.JSON(w, r, http.StatusOK, st)
}

func (h *SubtotalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Remove)
}

func (h *SubtotalHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Restore)
}

func (h *SubtotalHandler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (bool, error)) {
	code, err := pathCode(r)
	if err != nil {
		notFound(w, r)
		return
	}
	ok, err := op(r.Context(), code)
	switch {
	case errors.Is(err, services.ErrSubtotalInUse):
		rejectState(w, r, validation.InUse)
	case err != nil:
		serverError(w, h.log, r, err)
	case !ok:
		notFound(w, r)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
