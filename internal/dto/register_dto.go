package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	RegisterNumber int             `json:"register_number" validate:"required,min=1"`
	OpeningAmount  decimal.Decimal `json:"opening_amount"  validate:"min=0"`
}

// MovementRequest posts a manual drawer movement. The OPEN and SALE types are
// engine-generated and rejected here.
type MovementRequest struct {
	Type         string          `json:"type"         validate:"required,oneof=supply withdrawal receipt"`
	Amount       decimal.Decimal `json:"amount"       validate:"required,gt=0"`
	Reason       string          `json:"reason"       validate:"required,min=3"`
	Counterparty *string         `json:"counterparty"`
	ReferenceID  *string         `json:"reference_id" validate:"omitempty,uuid"`
}

// CloseSessionRequest carries the blind count declaration. The expected
// amount is only revealed after the declaration is received.
type CloseSessionRequest struct {
	DeclaredAmount decimal.Decimal `json:"declared_amount" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DeviationResponse struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
	Class   string          `json:"class"` // normal | warning | critical
}

type SessionReportResponse struct {
	SessionID      string             `json:"session_id"`
	RegisterNumber int                `json:"register_number"`
	Status         string             `json:"status"`
	OpeningAmount  decimal.Decimal    `json:"opening_amount"`
	ExpectedAmount decimal.Decimal    `json:"expected_amount"`
	DeclaredAmount *decimal.Decimal   `json:"declared_amount,omitempty"`
	Deviation      *DeviationResponse `json:"deviation,omitempty"`
	Notes          *string            `json:"notes,omitempty"`
	OpenedAt       string             `json:"opened_at"`
	ClosedAt       *string            `json:"closed_at,omitempty"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
	Scope   string          `json:"scope"`
}

type MovementResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	Counterparty *string         `json:"counterparty,omitempty"`
	CreatedAt    string          `json:"created_at"`
}
