package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/service"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Operator sign-on for a register
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials and register number"
// @Success 200 {object} dto.LoginResponse
// @Failure 422 {object} apperr.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Supervisor godoc
// @Summary Re-authenticate a supervisor for a gated action
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SupervisorAuthRequest true "Supervisor credentials and action"
// @Success 200 {object} dto.SupervisorAuthResponse
// @Failure 403 {object} apperr.APIError
// @Router /v1/auth/supervisor [post]
func (h *AuthHandler) Supervisor(c *gin.Context) {
	var req dto.SupervisorAuthRequest
	if !bindAndValidate(c, &req) {
		return
	}
	op, err := h.svc.AuthorizeSupervisor(c.Request.Context(), req.Code, req.Password, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SupervisorAuthResponse{Authorized: true, Role: op.Role})
}
