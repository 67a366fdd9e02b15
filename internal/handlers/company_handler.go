package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-portal/internal/auth"
	"github.com/justsurfingit/job-portal/internal/dtos"
	"github.com/justsurfingit/job-portal/internal/services"
)

type CompanyHandler struct {
	Companies *services.CompanyService
	Master    *services.MasterService
}

func NewCompanyHandler(companies *services.CompanyService, master *services.MasterService) *CompanyHandler {
	return &CompanyHandler{Companies: companies, Master: master}
}

func (h *CompanyHandler) Mine(c *gin.Context) {
	company, err := h.Companies.GetByOwner(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Upsert(c *gin.Context) {
	var req dtos.CompanyRequest
	if !bindJSON(c, &req) {
		return
	}
	company, err := h.Companies.Upsert(c.Request.Context(), auth.CurrentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	company, err := h.Companies.GetPublic(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) Features(c *gin.Context) {
	features, err := h.Master.Features(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, features)
}

func (h *CompanyHandler) Prefectures(c *gin.Context) {
	prefs, err := h.Master.Prefectures(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
