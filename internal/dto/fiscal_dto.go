package dto

import "github.com/shopspring/decimal"

type FiscalDocumentResponse struct {
	ID         string          `json:"id"`
	SaleID     string          `json:"sale_id"`
	Status     string          `json:"status"` // pending | issued | rejected | error
	Total      decimal.Decimal `json:"total"`
	DocumentID *string         `json:"document_id,omitempty"`
	AuthCode   *string         `json:"auth_code,omitempty"`
	RetryCount int             `json:"retry_count"`
	LastError  *string         `json:"last_error,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type PriceLookupResponse struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
