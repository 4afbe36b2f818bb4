package handler

import (
	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/adapter/http/middleware"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"
	"account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ClientHandler serves the authenticated client's own profile.
type ClientHandler struct {
	ledger ports.LedgerService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(ledger ports.LedgerService) *ClientHandler {
	return &ClientHandler{ledger: ledger}
}

// Me handles GET /api/v1/clients/me.
func (h *ClientHandler) Me(c *gin.Context) {
	clientID := middleware.ClientID(c)
	client := h.ledger.FindClient(clientID)
	if client == nil {
		// The token outlived its client.
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	response.OK(c, dto.NewClientResponse(client))
}
