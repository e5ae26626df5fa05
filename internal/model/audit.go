package model

import "time"

// Operation names the kind of state change recorded in the audit log.
type Operation string

const (
	OpCreate         Operation = "CREATE"
	OpApprove        Operation = "APPROVE"
	OpUpdate         Operation = "UPDATE"
	OpCancel         Operation = "CANCEL"
	OpCreateBilling  Operation = "CREATE_BILLING"
	OpConfirmBilling Operation = "CONFIRM_BILLING"
	OpConfirmPayment Operation = "CONFIRM_PAYMENT"
	OpCancelBilling  Operation = "CANCEL_BILLING"
)

// AuditEntry is an append-only record of one state-changing operation.
// OldValues and NewValues hold JSON snapshots and may be empty.
type AuditEntry struct {
	ID          uint64    `db:"id" json:"log_id"`
	EventID     uint64    `db:"event_id" json:"event_id"`
	Operation   Operation `db:"operation_type" json:"operation_type"`
	OldValues   string    `db:"old_values" json:"old_values,omitempty"`
	NewValues   string    `db:"new_values" json:"new_values,omitempty"`
	Description string    `db:"description" json:"description"`
	OperatorID  string    `db:"operator_id" json:"operator_id"`
	OperatedAt  time.Time `db:"operation_time" json:"operation_time"`
}
