package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/agrodocs/httpx"
	"github.com/diewo77/agrodocs/internal/models"
	"github.com/diewo77/agrodocs/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CompanyHandler edits the issuing company printed as sender on every document.
type CompanyHandler struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewCompanyHandler(db *gorm.DB, log logrus.FieldLogger) *CompanyHandler {
	return &CompanyHandler{db: db, log: log}
}

func (h *CompanyHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/company", h.View)
	mux.HandleFunc("PUT /api/company", h.Update)
}

type companyInput struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	TIN        string `json:"tin"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// issuer loads the company documents are issued by; the generator uses the same row.
func (h *CompanyHandler) issuer(r *http.Request) (*models.CompanySettings, error) {
	var settings models.CompanySettings
	err := h.db.WithContext(r.Context()).Order("id").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (h *CompanyHandler) View(w http.ResponseWriter, r *http.Request) {
	settings, err := h.issuer(r)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if settings == nil {
		notFound(w, r)
		return
	}
	httpx.JSON(w, r, http.StatusOK, settings)
}

// Update creates the company on first use.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in companyInput
	if err := decode(r, &in); err != nil {
		badRequest(w, r, err)
		return
	}
	settings, err := h.issuer(r)
	if err != nil {
		serverError(w, h.log, r, err)
		return
	}
	if settings == nil {
		settings = &models.CompanySettings{}
	}

	settings.Code = strings.TrimSpace(in.Code)
	settings.Name = strings.TrimSpace(in.Name)
	settings.TIN = strings.TrimSpace(in.TIN)
	settings.Email = in.Email
	settings.Phone = in.Phone
	settings.Address = in.Address
	settings.City = in.City
	settings.PostalCode = in.PostalCode
	settings.Country = in.Country

	v := make(validation.Violations)
	validation.Required("code", settings.Code, v)
	validation.Required("name", settings.Name, v)
	validation.Required("tin", settings.TIN, v)
	if !v.Empty() {
		rejectViolations(w, r, v)
		return
	}

	if err := h.db.WithContext(r.Context()).Save(settings).Error; err != nil {
		serverError(w, h.log, r, err)
		return
	}
	h.log.WithFields(logrus.Fields{"code": settings.Code, "name": settings.Name}).Info("company settings saved")
	httpx.JSON(w, r, http.StatusOK, settings)
}
