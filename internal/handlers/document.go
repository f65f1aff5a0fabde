package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/i18n"
	"github.com/diewo77/agrodocs/internal/engine"
	"github.com/diewo77/agrodocs/internal/services"
	"github.com/diewo77/agrodocs/internal/template"
	"github.com/sirupsen/logrus"
)

type DocumentHandler struct {
	gen *services.Generator
	log logrus.FieldLogger
}

func NewDocumentHandler(gen *services.Generator, log logrus.FieldLogger) *DocumentHandler {
	return &DocumentHandler{gen: gen, log: log}
}

func (h *DocumentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents/{kind}/{code}/generate", h.Generate)
	mux.HandleFunc("GET /api/generated/{id}", h.Generated)
	mux.HandleFunc("GET /api/generated/{id}/content", h.Content)
}

// Generate renders the document {kind}/{code} with the template given in ?template=N.
func (h *DocumentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	kind, err := services.ParseKind(r.PathValue("kind"))
	if err != nil {
		notFound(w, r)
		return
	}
	tpl, err := strconv.ParseInt(r.URL.Query().Get("template"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "bad_request", "template query parameter must be a template code", nil)
		return
	}
	gd, err := h.gen.Generate(r.Context(), services.Request{Kind: kind, DocumentCode: r.PathValue("code"), TemplateCode: tpl})
	if err != nil {
		h.generationError(w, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, gd)
}

func (h *DocumentHandler) generationError(w http.ResponseWriter, r *http.Request, err error) {
	var rerr *engine.ResolutionError
	switch {
	case errors.As(err, &rerr):
		code := "resolution_failed"
		if rerr.Kind == engine.NotApplicable || rerr.Kind == engine.UnknownVariable {
			code = rerr.Kind.String()
		}
		httpx.Error(w, r, http.StatusUnprocessableEntity, code, i18n.T(lang(r), code), map[string]string{
			"kind":  rerr.Kind.String(),
			"field": rerr.Field,
			"token": rerr.Token,
		})
	case errors.Is(err, services.ErrTemplateNotFound), errors.Is(err, services.ErrDocumentNotFound):
		notFound(w, r)
	case errors.Is(err, template.ErrTemplateDeleted):
		rejectState(w, r, template.StateOf(err))
	case errors.Is(err, services.ErrCancelled):
		httpx.Error(w, r, http.StatusConflict, "cancelled", err.Error(), nil)
	case errors.Is(err, services.ErrIssuerMissing):
		httpx.Error(w, r, http.StatusConflict, "issuer_missing", err.Error(), nil)
	default:
		serverError(w, h.log, r, err)
	}
}

func (h *DocumentHandler) Generated(w http.ResponseWriter, r *http.Request) {
	gd, err := h.gen.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if gd == nil {
		notFound(w, r)
		return
	}
	httpx.JSON(w, r, http.StatusOK, gd)
}

// Content streams the archived file of a generated document.
func (h *DocumentHandler) Content(w http.ResponseWriter, r *http.Request) {
	gd, err := h.gen.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if gd == nil {
		notFound(w, r)
		return
	}
	body, err := h.gen.Content(r.Context(), gd)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	ct := mime.TypeByExtension("." + gd.Format)
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": gd.DocumentCode + "." + gd.Format,
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
