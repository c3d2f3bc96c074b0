package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus enumerates the monthly bill lifecycle.
type BillStatus string

const (
	StatusUnpaid             BillStatus = "UNPAID"
	StatusOrderCreated       BillStatus = "ORDER_CREATED"
	StatusReferenceSubmitted BillStatus = "REFERENCE_SUBMITTED"
	StatusPaid               BillStatus = "PAID"
)

// Known reports whether the status is one the client understands.
func (s BillStatus) Known() bool {
	switch s {
	case StatusUnpaid, StatusOrderCreated, StatusReferenceSubmitted, StatusPaid:
		return true
	}
	return false
}

// Bill is the client's read-only snapshot of a monthly bill. Bills are
// created upstream, once per customer and month; the client only observes and
// drives their status.
type Bill struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Month       Month           `json:"month"`
	TotalLiters decimal.Decimal `json:"total_liters"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      BillStatus      `json:"status"`
	PDFURL      string          `json:"pdf_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentOrder is the checkout order the payment provider issued for a bill.
// At most one active order exists per bill; retried creation replays the same
// order via the idempotency key instead of minting a second one.
type PaymentOrder struct {
	BillID          uuid.UUID `json:"bill_id"`
	ExternalOrderID string    `json:"external_order_id"`
	Amount          int64     `json:"amount"` // minor currency units
	Currency        string    `json:"currency"`
	ProviderKey     string    `json:"provider_key"`
}

// PaymentReference is a customer-reported offline transfer, identified by the
// bank-issued UTR, awaiting admin confirmation.
type PaymentReference struct {
	BillID      uuid.UUID `json:"bill_id"`
	UTR         string    `json:"utr"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PDFStatus is the upstream answer to a bill PDF readiness probe.
type PDFStatus struct {
	Ready       bool
	ArtifactURL string
}

// LastPayment is the most recent successful payment for the authenticated
// customer.
type LastPayment struct {
	ID       uuid.UUID       `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	PaidAt   time.Time       `json:"paid_at"`
	Provider string          `json:"provider"`
}
