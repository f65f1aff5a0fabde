package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/internal/repository"
	"github.com/diewo77/agrodocs/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const pageSize = 20

// ProductHandler manages the products delivery notes are priced with.
type ProductHandler struct {
	repo *repository.Repository[models.Product, string]
	log  logrus.FieldLogger
}

func NewProductHandler(db *gorm.DB, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{repo: repository.New[models.Product, string](db, "code"), log: log}
}

func (h *ProductHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.List)
	mux.HandleFunc("POST /api/products", h.Create)
	mux.HandleFunc("GET /api/products/{code}", h.View)
	mux.HandleFunc("PUT /api/products/{code}", h.Update)
}

type productInput struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Unit           string          `json:"unit"`
	PricedByWeight *bool           `json:"priced_by_weight"`
}

func (in productInput) apply(p *models.Product) validation.Violations {
	p.Name = strings.TrimSpace(in.Name)
	p.UnitPrice = in.UnitPrice
	if in.Unit != "" {
		p.Unit = in.Unit
	}
	if in.PricedByWeight != nil {
		p.PricedByWeight = *in.PricedByWeight
	}
	v := make(validation.Violations)
	validation.Required("code", p.Code, v)
	validation.Required("name", p.Name, v)
	validation.PositiveDecimal("unit_price", p.UnitPrice, v)
	return v
}

// List pages through products, optionally filtered by ?q= on code or name.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	db := h.repo.DB(r.Context()).Model(&models.Product{})
	if query != "" {
		db = db.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", "%"+query+"%", "%"+query+"%")
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		serverError(w, h.log, r, err)
		return
	}
	var products []models.Product
	if err := db.Order("name").Limit(pageSize).Offset((page - 1) * pageSize).Find(&products).Error; err != nil {
		serverError(w, h.log, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]any{
		"items": products,
		"total": total,
		"page":  page,
		"limit": pageSize,
	})
}

func (h *ProductHandler) View(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Find(r.Context(), r.PathValue("code"))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if p == nil {
		notFound(w, r)
		return
	}
	httpx.JSON(w, r, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if err := decode(r, &in); err != nil {
		badRequest(w, r, err)
		return
	}
	p := models.Product{Code: strings.ToUpper(strings.TrimSpace(in.Code)), Unit: "kg", PricedByWeight: true}
	if v := in.apply(&p); !v.Empty() {
		rejectViolations(w, r, v)
		return
	}
	if err := h.repo.Register(r.Context(), &p); err != nil {
		if errors.Is(err, repository.ErrDuplicated) {
			rejectViolations(w, r, validation.Violations{"code": string(validation.Duplicated)})
			return
		}
		serverError(w, h.log, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, p)
}

// Update changes everything but the code.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Find(r.Context(), r.PathValue("code"))
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if p == nil {
		notFound(w, r)
		return
	}
	var in productInput
	if err := decode(r, &in); err != nil {
		badRequest(w, r, err)
		return
	}
	if v := in.apply(p); !v.Empty() {
		rejectViolations(w, r, v)
		return
	}
	if err := h.repo.Update(r.Context(), p); err != nil {
		serverError(w, h.log, r, err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, p)
}
