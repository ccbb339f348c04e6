package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreateAccount  AuditAction = "CREATE_ACCOUNT"
	AuditActionUpdateAccount  AuditAction = "UPDATE_ACCOUNT"
	AuditActionDeleteAccount  AuditAction = "DELETE_ACCOUNT"
	AuditActionCreateTransfer AuditAction = "CREATE_TRANSFER"
	AuditActionSettleTransfer AuditAction = "SETTLE_TRANSFER"
)

// AuditLog records a single audited write against the ledger.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	RequestID    string      `json:"request_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
