package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is an audit trail entry for settlement operations.
type AuditLog struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionWalletCreate AuditAction = "wallet.create"
	AuditActionWalletDebit  AuditAction = "wallet.debit"
	AuditActionWalletCredit AuditAction = "wallet.credit"

	AuditActionGroupCreate   AuditAction = "group.create"
	AuditActionGroupActivate AuditAction = "group.activate"
	AuditActionGroupJoin     AuditAction = "group.join"
	AuditActionGroupCancel   AuditAction = "group.cancel"

	AuditActionIntentBegin   AuditAction = "intent.begin"
	AuditActionIntentConsume AuditAction = "intent.consume"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}
