package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zachow1/pdv-medusax8-sub000/internal/service"
)

type PriceHandler struct{ svc service.CatalogService }

func NewPriceHandler(svc service.CatalogService) *PriceHandler { return &PriceHandler{svc: svc} }

// Lookup godoc
// @Summary Price check by item code
// @Tags price
// @Produce json
// @Param code path string true "Item code"
// @Success 200 {object} dto.PriceLookupResponse
// @Failure 404 {object} apperr.APIError
// @Router /v1/price/{code} [get]
func (h *PriceHandler) Lookup(c *gin.Context) {
	resp, err := h.svc.PriceLookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
