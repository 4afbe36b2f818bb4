package handler

import (
	"net/http"

	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/adapter/http/middleware"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"
	"account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles registration and session endpoints.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /api/v1/clients.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	client, err := h.authSvc.Register(c.Request.Context(), ports.RegisterClientRequest{
		ID:       req.ID,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, client.ID())
	response.Created(c, dto.NewClientResponse(client))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiry, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, req.Email)
	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// ChangeCredential handles PUT /api/v1/clients/me/credential.
func (h *AuthHandler) ChangeCredential(c *gin.Context) {
	clientID := middleware.ClientID(c)
	if clientID == "" {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ChangeCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.authSvc.ChangeCredential(c.Request.Context(), clientID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, clientID)
	response.OK(c, gin.H{"changed": true})
}

// HealthCheck handles GET /health. It pings every configured dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
