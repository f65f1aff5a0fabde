package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/internal/attribute"
	"github.com/diewo77/agrodocs/internal/services"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
)

type VariableHandler struct {
	svc *services.VariableService
	log logrus.FieldLogger
}

func NewVariableHandler(svc *services.VariableService, log logrus.FieldLogger) *VariableHandler {
	return &VariableHandler{svc: svc, log: log}
}

func (h *VariableHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/attributes", h.Attributes)
	mux.HandleFunc("GET /api/variables", h.List)
	mux.HandleFunc("POST /api/variables", h.Create)
	mux.HandleFunc("GET /api/variables/{name}", h.View)
	mux.HandleFunc("PUT /api/variables/{name}", h.Update)
	mux.HandleFunc("POST /api/variables/{name}/delete", h.Delete)
	mux.HandleFunc("POST /api/variables/{name}/restore", h.Restore)
}

// Attributes lists the entity attributes a variable can bind to.
func (h *VariableHandler) Attributes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, attribute.All())
}

func (h *VariableHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), includeDeleted(r))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, list)
}

func (h *VariableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.VariableInput
	if err := decode(r, &in); err != nil {
		badRequest(w, r, err)
		return
	}
	h.respond(w, r, in.Name, http.StatusCreated, func(ctx context.Context) (validation.State, error) {
		return h.svc.Register(ctx, in)
	})
}

func (h *VariableHandler) View(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Find(r.Context(), r.PathValue("name"))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if v == nil {
		notFound(w, r)
		return
	}
	httpx.JSON(w, r, http.StatusOK, v)
}

func (h *VariableHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.VariableInput
	if err := decode(r, &in); err != nil {
		badRequest(w, r, err)
		return
	}
	h.respond(w, r, in.Name, http.StatusOK, func(ctx context.Context) (validation.State, error) {
		return h.svc.Update(ctx, r.PathValue("name"), in)
	})
}

func (h *VariableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Remove)
}

func (h *VariableHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Restore)
}

// respond runs op and answers with the stored variable on success.
func (h *VariableHandler) respond(w http.ResponseWriter, r *http.Request, name string, status int, op func(context.Context) (validation.State, error)) {
	state, err := op(r.Context())
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if !state.OK() {
		rejectState(w, r, state)
		return
	}
	v, err := h.svc.Find(r.Context(), name)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	httpx.JSON(w, r, status, v)
}

func (h *VariableHandler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (bool, error)) {
	ok, err := op(r.Context(), r.PathValue("name"))
	switch {
	case err != nil:
		serverError(w, h.log, r, err)
	case !ok:
		notFound(w, r)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
