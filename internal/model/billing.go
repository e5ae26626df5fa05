package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Billing is the post-event invoice of a completed event.  At most one
// billing exists per event; TotalFee always equals BaseFee + AdditionalFee.
type Billing struct {
	ID              uint64          `db:"id" json:"billing_id"`
	EventID         uint64          `db:"event_id" json:"event_id"`
	AreaID          uint64          `db:"area_id" json:"area_id"`
	CollaborationID uint64          `db:"collaboration_id" json:"collaboration_id"`
	ActualStart     time.Time       `db:"actual_start" json:"actual_start_time"`
	ActualEnd       time.Time       `db:"actual_end" json:"actual_end_time"`
	RentalHours     decimal.Decimal `db:"rental_hours" json:"rental_hours"`
	BaseFee         decimal.Decimal `db:"base_fee" json:"base_fee"`
	AdditionalFee   decimal.Decimal `db:"additional_fee" json:"additional_fee"`
	TotalFee        decimal.Decimal `db:"total_fee" json:"total_fee"`
	Status          BillingStatus   `db:"status" json:"billing_status"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method,omitempty"`
	PaymentTime     *time.Time      `db:"payment_time" json:"payment_time,omitempty"`
	TransactionID   string          `db:"transaction_id" json:"transaction_id,omitempty"`
	InvoiceInfo     string          `db:"invoice_info" json:"-"` // serialized InvoiceInfo
	Remarks         string          `db:"remarks" json:"remarks,omitempty"`
	CreatedBy       string          `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_time"`
	ConfirmedAt     *time.Time      `db:"confirmed_at" json:"confirmed_time,omitempty"`
	ConfirmedBy     string          `db:"confirmed_by" json:"confirmed_by,omitempty"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// BillingServiceDetail is one add-on line of a billing.
type BillingServiceDetail struct {
	ID        uint64          `db:"id" json:"detail_id"`
	BillingID uint64          `db:"billing_id" json:"billing_id"`
	ServiceID uint64          `db:"service_id" json:"service_id"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// InvoiceType distinguishes ordinary and special (VAT) invoices.
type InvoiceType string

const (
	InvoiceNormal  InvoiceType = "NORMAL"
	InvoiceSpecial InvoiceType = "SPECIAL"
)

// InvoiceInfo is attached to a billing when it is confirmed.
type InvoiceInfo struct {
	CompanyName string      `json:"company_name"`
	TaxNumber   string      `json:"tax_number"`
	Address     string      `json:"address,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	BankName    string      `json:"bank_name,omitempty"`
	BankAccount string      `json:"bank_account,omitempty"`
	InvoiceType InvoiceType `json:"invoice_type"`
}

// PaymentMethod values accepted by billing confirmation.
const (
	PaymentCash         = "CASH"
	PaymentBankTransfer = "BANK_TRANSFER"
	PaymentOnline       = "ONLINE_PAYMENT"
	PaymentCreditCard   = "CREDIT_CARD"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentBankTransfer, PaymentOnline, PaymentCreditCard:
		return true
	}
	return false
}
