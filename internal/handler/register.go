package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/middleware"
	"github.com/zachow1/pdv-medusax8-sub000/internal/service"
)

type RegisterHandler struct{ svc service.CashService }

func NewRegisterHandler(svc service.CashService) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

// Open godoc
// @Summary Open a cash session
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Opening data"
// @Success 201 {object} dto.SessionReportResponse
// @Failure 409 {object} apperr.APIError
// @Router /v1/register/open [post]
func (h *RegisterHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)

	resp, err := h.svc.Open(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Movement godoc
// @Summary Record a manual drawer movement
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apperr.APIError
// @Router /v1/register/movement [post]
func (h *RegisterHandler) Movement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)

	resp, err := h.svc.PostMovement(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Blind-count close of the open session
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseSessionRequest true "Declared amount"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 403 {object} apperr.APIError
// @Router /v1/register/close [post]
func (h *RegisterHandler) Close(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)

	resp, err := h.svc.Close(c.Request.Context(), operatorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Balance godoc
// @Summary Running drawer balance
// @Tags register
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.BalanceResponse
// @Router /v1/register/balance [get]
func (h *RegisterHandler) Balance(c *gin.Context) {
	resp, err := h.svc.Balance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Session report
// @Tags register
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 404 {object} apperr.APIError
// @Router /v1/register/{id}/report [get]
func (h *RegisterHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apperr.APIError{Detail: "invalid session id"})
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
