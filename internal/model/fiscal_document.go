package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FiscalDocument tracks the asynchronous emission of the fiscal receipt for a
// finalized sale. The sidecar owns XML generation/signing/transmission; this
// row only records the outcome.
// Status: "pending" | "issued" | "rejected" | "error"
type FiscalDocument struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending'"`
	DocumentID *string         `gorm:"type:varchar(60)"`
	AuthCode   *string         `gorm:"type:varchar(60)"`
	Notes      *string
	// PDFPath is relative to the configured receipt storage path.
	PDFPath *string `gorm:"column:pdf_path"`
	// Retry bookkeeping for the cron that re-attempts failed emissions.
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
