package dto

import "github.com/shopspring/decimal"

// ─── Cart ────────────────────────────────────────────────────────────────────

// AddItemRequest enters quantity of a catalog code. Description and price are
// resolved by catalog lookup; qty defaults to 1 upstream when omitted.
type AddItemRequest struct {
	Code     string          `json:"code"     validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

type CancelItemRequest struct {
	Code     string          `json:"code"     validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	// SupervisorCode/SupervisorPassword: required when cancel_item is a
	// supervisor-gated action.
	SupervisorCode     *string `json:"supervisor_code"`
	SupervisorPassword *string `json:"supervisor_password"`
}

type ItemDiscountRequest struct {
	Kind   string          `json:"kind"   validate:"required,oneof=percent absolute"`
	Value  decimal.Decimal `json:"value"  validate:"required,gt=0"`
	Reason string          `json:"reason" validate:"required,min=3"`
	// Required when price_change is a supervisor-gated action.
	SupervisorCode     *string `json:"supervisor_code"`
	SupervisorPassword *string `json:"supervisor_password"`
}

type SaleDiscountRequest struct {
	Kind               string          `json:"kind"   validate:"required,oneof=percent absolute"`
	Value              decimal.Decimal `json:"value"  validate:"required,gt=0"`
	Reason             string          `json:"reason" validate:"required,min=3"`
	SupervisorCode     *string         `json:"supervisor_code"`
	SupervisorPassword *string         `json:"supervisor_password"`
}

type AttachCustomerRequest struct {
	// Document identifies the customer; empty detaches.
	Document string `json:"document"`
}

type CartLineResponse struct {
	Sequence        int             `json:"sequence"`
	Code            string          `json:"code"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Gross           decimal.Decimal `json:"gross"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
	Cancellation    bool            `json:"cancellation"`
}

type CartResponse struct {
	Lines         []CartLineResponse `json:"lines"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	ItemDiscounts decimal.Decimal    `json:"item_discounts"`
	Cancellations decimal.Decimal    `json:"cancellations"`
	Net           decimal.Decimal    `json:"net"`
	SaleDiscount  decimal.Decimal    `json:"sale_discount"`
	FinalTotal    decimal.Decimal    `json:"final_total"`
	Customer      *string            `json:"customer,omitempty"`
}

// ─── Tenders ─────────────────────────────────────────────────────────────────

type SelectTenderRequest struct {
	Code string `json:"code" validate:"required"`
}

type ApplyTenderRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	// Cheque details, required when the active tender is cheque.
	Cheque *ChequeRequest `json:"cheque" validate:"omitempty"`
}

type ChequeRequest struct {
	Payee          string `json:"payee"           validate:"required"`
	Bank           string `json:"bank"            validate:"required"`
	DocumentNumber string `json:"document_number" validate:"required"`
	// DueDate in YYYY-MM-DD; today or later for post-dated cheques.
	DueDate string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type AppliedTenderResponse struct {
	Sequence int             `json:"sequence"`
	Code     string          `json:"code"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
}

type PaymentStateResponse struct {
	SaleTotal    decimal.Decimal         `json:"sale_total"`
	AppliedTotal decimal.Decimal         `json:"applied_total"`
	Remaining    decimal.Decimal         `json:"remaining"`
	Settled      bool                    `json:"settled"`
	Tenders      []AppliedTenderResponse `json:"tenders"`
}

// ─── Finalization ────────────────────────────────────────────────────────────

type FinalizeRequest struct {
	SupervisorCode     *string `json:"supervisor_code"`
	SupervisorPassword *string `json:"supervisor_password"`
	// CustomerEmail: when present the receipt PDF is mailed asynchronously.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

type SaleResponse struct {
	ID             string                  `json:"id"`
	TicketNumber   int                     `json:"ticket_number"`
	OriginalTotal  decimal.Decimal         `json:"original_total"`
	DiscountAmount decimal.Decimal         `json:"discount_amount"`
	FinalTotal     decimal.Decimal         `json:"final_total"`
	Tenders        []AppliedTenderResponse `json:"tenders"`
	CreatedAt      string                  `json:"created_at"`
}
