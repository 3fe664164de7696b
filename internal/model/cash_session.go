package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashSession is the open/close bracket of a register's operating period.
// Status: "open" | "closed". At most one session may be open at a time —
// the observed policy is global across registers, not per register.
type CashSession struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterNumber int             `gorm:"not null;index"`
	OperatorID     uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'open'"`
	// Closure snapshot — filled on close, audit only, not used for balance.
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DeclaredAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Deviation      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DeviationPct   *decimal.Decimal `gorm:"type:decimal(5,2)"`
	// DeviationClass: "normal" | "warning" | "critical"
	DeviationClass *string `gorm:"type:varchar(20)"`
	Notes          *string
	OpenedAt       time.Time
	ClosedAt       *time.Time

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

// Movement types. The running balance is never stored; it is recomputed as
// the signed sum over movements: OPEN, SUPPLY, RECEIPT and SALE add,
// WITHDRAWAL subtracts. Amounts are stored positive; the sign comes from
// the type.
const (
	MovementOpen       = "open"
	MovementSupply     = "supply"
	MovementWithdrawal = "withdrawal"
	MovementReceipt    = "receipt"
	MovementSale       = "sale"
)

// MovementSign returns +1 or -1 for a movement type.
func MovementSign(movType string) int {
	if movType == MovementWithdrawal {
		return -1
	}
	return 1
}

// CashMovement is an immutable entry in the cash-drawer ledger.
// Movements are NEVER updated or deleted — corrections create new entries.
type CashMovement struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	Type       string          `gorm:"type:varchar(20);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason     string          `gorm:"not null"`
	OperatorID uuid.UUID       `gorm:"type:uuid;not null"`
	// Counterparty: who the money came from / went to, when it matters
	// (receivable receipts, supplier payouts).
	Counterparty *string `gorm:"type:varchar(120)"`
	// ReferenceID links back to the originating Sale or receivable.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}
