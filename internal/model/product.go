package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry consulted at line entry. Catalog maintenance
// lives in the back office; the terminal only reads.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string          `gorm:"type:varchar(30);uniqueIndex;not null"`
	Description string          `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Customer identifies the buyer on tenders that require one (cheque, boleto,
// store credit). Optional on everything else.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Document  string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	Email     *string   `gorm:"type:varchar(120)"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
