package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxResourceID lets a handler name the resource it created, for routes
// where the id is not a path parameter.
const CtxResourceID = "resource_id"

// AuditLog creates an audit middleware that logs successful write operations.
// Actions are looked up by route template, not by raw path.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		action, resourceType := mapPathToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.GetString(CtxResourceID)
		}

		details, _ := json.Marshal(map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ClientID:     ClientID(c),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapPathToAction(route, method string) (domain.AuditAction, string) {
	switch method {
	case http.MethodPost:
		switch route {
		case "/api/v1/clients":
			return domain.AuditActionRegister, "client"
		case "/api/v1/auth/login":
			return domain.AuditActionLogin, "session"
		case "/api/v1/accounts":
			return domain.AuditActionOpenAccount, "account"
		case "/api/v1/accounts/:id/deposit":
			return domain.AuditActionDeposit, "account"
		case "/api/v1/accounts/:id/withdraw":
			return domain.AuditActionWithdraw, "account"
		case "/api/v1/accounts/:id/transfer":
			return domain.AuditActionTransfer, "account"
		case "/api/v1/accounts/:id/block":
			return domain.AuditActionBlockAccount, "account"
		case "/api/v1/accounts/:id/activate":
			return domain.AuditActionActivateAccount, "account"
		case "/api/v1/accounts/:id/close":
			return domain.AuditActionCloseAccount, "account"
		}
	case http.MethodPut:
		if route == "/api/v1/clients/me/credential" {
			return domain.AuditActionChangeCredential, "client"
		}
	}
	return "", ""
}
