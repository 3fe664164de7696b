package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/middleware"
	"github.com/zachow1/pdv-medusax8-sub000/internal/service"
	"github.com/zachow1/pdv-medusax8-sub000/internal/terminal"
)

// TerminalHandler exposes the sale flow of the register the JWT is bound to.
type TerminalHandler struct{ svc service.SaleService }

func NewTerminalHandler(svc service.SaleService) *TerminalHandler {
	return &TerminalHandler{svc: svc}
}

// actorFrom builds the session context from the token claims. The session id
// is resolved server-side against the open session.
func actorFrom(c *gin.Context) terminal.SessionContext {
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)
	return terminal.SessionContext{
		OperatorID:     operatorID,
		OperatorName:   claims.Name,
		Role:           claims.Role,
		RegisterNumber: claims.RegisterNumber,
	}
}

// StartSale godoc
// @Summary Start-sale gate signal (idempotent)
// @Tags terminal
// @Security BearerAuth
// @Success 204
// @Router /v1/terminal/sale/start [post]
func (h *TerminalHandler) StartSale(c *gin.Context) {
	if err := h.svc.StartSale(c.Request.Context(), actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddItem godoc
// @Summary Add or merge a cart line
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AddItemRequest true "Item code and quantity"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apperr.APIError
// @Router /v1/terminal/items [post]
func (h *TerminalHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelItem godoc
// @Summary Append a cancellation line
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CancelItemRequest true "Item code and quantity"
// @Success 200 {object} dto.CartResponse
// @Failure 422 {object} apperr.APIError
// @Router /v1/terminal/items/cancel [post]
func (h *TerminalHandler) CancelItem(c *gin.Context) {
	var req dto.CancelItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CancelItem(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ItemDiscount godoc
// @Summary Apply a discount to one cart line
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param seq path int true "Line sequence"
// @Param body body dto.ItemDiscountRequest true "Discount"
// @Success 200 {object} dto.CartResponse
// @Failure 422 {object} apperr.APIError
// @Router /v1/terminal/items/{seq}/discount [post]
func (h *TerminalHandler) ItemDiscount(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.APIError{Detail: "invalid line sequence"})
		return
	}
	var req dto.ItemDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyItemDiscount(c.Request.Context(), actorFrom(c), seq, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaleDiscount godoc
// @Summary Apply a whole-sale discount
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SaleDiscountRequest true "Discount"
// @Success 200 {object} dto.CartResponse
// @Failure 422 {object} apperr.APIError
// @Router /v1/terminal/discount [post]
func (h *TerminalHandler) SaleDiscount(c *gin.Context) {
	var req dto.SaleDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplySaleDiscount(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cart godoc
// @Summary Current cart lines and totals
// @Tags terminal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CartResponse
// @Router /v1/terminal/cart [get]
func (h *TerminalHandler) Cart(c *gin.Context) {
	resp, err := h.svc.Cart(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Customer godoc
// @Summary Attach or detach the sale's customer
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AttachCustomerRequest true "Customer document (empty detaches)"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apperr.APIError
// @Router /v1/terminal/customer [put]
func (h *TerminalHandler) Customer(c *gin.Context) {
	var req dto.AttachCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AttachCustomer(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SelectTender godoc
// @Summary Select the active tender (opens payment on first use)
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SelectTenderRequest true "Tender code"
// @Success 200 {object} dto.PaymentStateResponse
// @Failure 403 {object} apperr.APIError
// @Router /v1/terminal/tenders/select [post]
func (h *TerminalHandler) SelectTender(c *gin.Context) {
	var req dto.SelectTenderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SelectTender(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplyTender godoc
// @Summary Apply an amount against the active tender
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ApplyTenderRequest true "Amount (and cheque details when required)"
// @Success 200 {object} dto.PaymentStateResponse
// @Failure 502 {object} apperr.APIError
// @Router /v1/terminal/tenders [post]
func (h *TerminalHandler) ApplyTender(c *gin.Context) {
	var req dto.ApplyTenderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyTender(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveTender godoc
// @Summary Remove an applied tender
// @Tags terminal
// @Produce json
// @Security BearerAuth
// @Param idx path int true "Applied tender sequence"
// @Success 200 {object} dto.PaymentStateResponse
// @Failure 404 {object} apperr.APIError
// @Router /v1/terminal/tenders/{idx} [delete]
func (h *TerminalHandler) RemoveTender(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.APIError{Detail: "invalid tender sequence"})
		return
	}
	resp, err := h.svc.RemoveTender(c.Request.Context(), actorFrom(c), seq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize godoc
// @Summary Finalize the sale
// @Tags terminal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.FinalizeRequest true "Finalization options"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} apperr.APIError
// @Router /v1/terminal/finalize [post]
func (h *TerminalHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Finalize(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel godoc
// @Summary Void the sale in progress
// @Tags terminal
// @Security BearerAuth
// @Success 204
// @Router /v1/terminal/cancel [post]
func (h *TerminalHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
