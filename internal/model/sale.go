package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the append-only record created at finalization. It is immutable
// once written: FinalTotal = OriginalTotal − DiscountAmount, with
// DiscountAmount in [0, OriginalTotal].
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketNumber   int             `gorm:"uniqueIndex;not null"`
	SessionID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	OperatorID     uuid.UUID       `gorm:"type:uuid;not null"`
	RegisterNumber int             `gorm:"not null"`
	OriginalTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// DiscountKind: "" | "percent" | "absolute"
	DiscountKind    string          `gorm:"type:varchar(10)"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountReason  *string
	FinalTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CustomerID      *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt       time.Time

	Items   []SaleItem   `gorm:"foreignKey:SaleID"`
	Tenders []SaleTender `gorm:"foreignKey:SaleID"`

	Customer *Customer `gorm:"foreignKey:CustomerID"`
	Operator *Operator `gorm:"foreignKey:OperatorID"`
}

// SaleItem is the persisted snapshot of a cart line, cancellations included
// (negative quantity and total, mirroring the in-memory ledger).
type SaleItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	Sequence        int             `gorm:"not null"`
	Code            string          `gorm:"type:varchar(30);not null"`
	Description     string          `gorm:"not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	GrossTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountKind    string          `gorm:"type:varchar(10)"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountReason  *string
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cancellation    bool            `gorm:"not null;default:false"`
}

// SaleTender is one applied payment against a sale, ordered by Sequence.
type SaleTender struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Sequence int             `gorm:"not null"`
	Code     string          `gorm:"type:varchar(20);not null"`
	Label    string          `gorm:"type:varchar(60);not null"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ChequeRef holds the captured cheque document number when Code is cheque.
	ChequeRef *string `gorm:"type:varchar(40)"`
	// Terminal authorization evidence for card tenders.
	AuthTransactionID *string `gorm:"type:varchar(40)"`
	AuthCode          *string `gorm:"type:varchar(20)"`
	CreatedAt         time.Time
}
