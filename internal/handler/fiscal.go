package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/service"
)

type FiscalHandler struct{ svc service.FiscalService }

func NewFiscalHandler(svc service.FiscalService) *FiscalHandler { return &FiscalHandler{svc: svc} }

// Status godoc
// @Summary Fiscal document status for a finalized sale
// @Tags fiscal
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Success 200 {object} dto.FiscalDocumentResponse
// @Failure 404 {object} apperr.APIError
// @Router /v1/fiscal/{id} [get]
func (h *FiscalHandler) Status(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.APIError{Detail: "invalid sale id"})
		return
	}
	resp, err := h.svc.StatusBySale(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Retry godoc
// @Summary Force a stuck document back into the retry queue
// @Tags fiscal
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fiscal document ID"
// @Success 200 {object} dto.FiscalDocumentResponse
// @Failure 422 {object} apperr.APIError
// @Router /v1/fiscal/{id}/retry [post]
func (h *FiscalHandler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.APIError{Detail: "invalid document id"})
		return
	}
	resp, err := h.svc.Retry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
