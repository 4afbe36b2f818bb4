package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister         AuditAction = "REGISTER"
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionLoginFailed      AuditAction = "LOGIN_FAILED"
	AuditActionChangeCredential AuditAction = "CHANGE_CREDENTIAL"
	AuditActionOpenAccount      AuditAction = "OPEN_ACCOUNT"
	AuditActionCloseAccount     AuditAction = "CLOSE_ACCOUNT"
	AuditActionBlockAccount     AuditAction = "BLOCK_ACCOUNT"
	AuditActionActivateAccount  AuditAction = "ACTIVATE_ACCOUNT"
	AuditActionDeposit          AuditAction = "DEPOSIT"
	AuditActionWithdraw         AuditAction = "WITHDRAW"
	AuditActionTransfer         AuditAction = "TRANSFER"
)

// AuditLog records a single audited action.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ClientID     string      `json:"client_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
