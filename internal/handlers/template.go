package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/internal/services"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
)

type TemplateHandler struct {
	svc *services.TemplateService
	log logrus.FieldLogger
}

func NewTemplateHandler(svc *services.TemplateService, log logrus.FieldLogger) *TemplateHandler {
	return &TemplateHandler{svc: svc, log: log}
}

func (h *TemplateHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/templates", h.List)
	mux.HandleFunc("POST /api/templates", h.Create)
	mux.HandleFunc("GET /api/templates/{code}", h.View)
	mux.HandleFunc("PUT /api/templates/{code}", h.Update)
	mux.HandleFunc("POST /api/templates/{code}/delete", h.Delete)
	mux.HandleFunc("POST /api/templates/{code}/restore", h.Restore)
	mux.HandleFunc("POST /api/templates/{code}/fields", h.AddField)
	mux.HandleFunc("PUT /api/templates/{code}/fields/{position}", h.UpdateField)
	mux.HandleFunc("DELETE /api/templates/{code}/fields/{position}", h.RemoveField)
}

// templateSummary is a template without its file content.
type templateSummary struct {
	Code      int64            `json:"code"`
	Name      string           `json:"name"`
	Version   int              `json:"version"`
	Extension string           `json:"extension"`
	Fields    []template.Field `json:"fields"`
	Deleted   bool             `json:"deleted"`
}

func summarize(t *template.Template) templateSummary {
	return templateSummary{
		Code:      t.Code,
		Name:      t.Name,
		Version:   t.Version,
		Extension: t.File.Extension,
		Fields:    t.Fields,
		Deleted:   t.Deleted,
	}
}

type createTemplateRequest struct {
	Name   string           `json:"name"`
	File   template.File    `json:"file"`
	Fields []template.Field `json:"fields"`
}

type fieldRequest struct {
	Position   string `json:"position"`
	Expression string `json:"expression"`
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), includeDeleted(r))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	out := make([]templateSummary, 0, len(list))
	for _, t := range list {
		out = append(out, summarize(t))
	}
	httpx.JSON(w, r, http.StatusOK, out)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	state, code, err := h.svc.Register(r.Context(), req.Name, req.File, req.Fields)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if !state.OK() {
		rejectState(w, r, state)
		return
	}
	h.respondTemplate(w, r, code, http.StatusCreated)
}

// View returns the template with its file; ?summary=1 leaves the file out.
func (h *TemplateHandler) View(w http.ResponseWriter, r *http.Request) {
	code, err := pathCode(r)
	if err != nil {
		notFound(w, r)
		return
	}
	t, err := h.svc.Find(r.Context(), code)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if t == nil {
		notFound(w, r)
		return
	}
	if r.URL.Query().Get("summary") != "" {
		httpx.JSON(w, r, http.StatusOK, summarize(t))
		return
	}
	httpx.JSON(w, r, http.StatusOK, t)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd services.TemplateUpdate
	if err := decode(r, &upd); err != nil {
		badRequest(w, r, err)
		return
	}
	h.edit(w, r, func(ctx context.Context, code int64) (validation.State, error) {
		return h.svc.Update(ctx, code, upd)
	})
}

func (h *TemplateHandler) AddField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	h.edit(w, r, func(ctx context.Context, code int64) (validation.State, error) {
		return h.svc.AddField(ctx, code, req.Position, req.Expression)
	})
}

func (h *TemplateHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	h.edit(w, r, func(ctx context.Context, code int64) (validation.State, error) {
		return h.svc.UpdateField(ctx, code, r.PathValue("position"), req.Position, req.Expression)
	})
}

func (h *TemplateHandler) RemoveField(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ctx context.Context, code int64) (validation.State, error) {
		return h.svc.RemoveField(ctx, code, r.PathValue("position"))
	})
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Remove)
}

func (h *TemplateHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Restore)
}

func (h *TemplateHandler) edit(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (validation.State, error)) {
	code, err := pathCode(r)
	if err != nil {
		notFound(w, r)
		return
	}
	state, err := op(r.Context(), code)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if !state.OK() {
		rejectState(w, r, state)
		return
	}
	h.respondTemplate(w, r, code, http.StatusOK)
}

func (h *TemplateHandler) respondTemplate(w http.ResponseWriter, r *http.Request, code int64, status int) {
	t, err := h.svc.Find(r.Context(), code)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if t == nil {
		notFound(w, r)
		return
	}
	httpx.JSON(w, r, status, summarize(t))
}

func (h *TemplateHandler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (bool, error)) {
	code, err := pathCode(r)
	if err != nil {
		notFound(w, r)
		return
	}
	ok, err := op(r.Context(), code)
	switch {
	case err != nil:
		serverError(w, h.log, r, err)
	case !ok:
		notFound(w, r)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
