// Package tender implements the payment allocation engine: tenders are
// collected against a sale total, clamped to the remaining balance, and the
// sale may only finalize once applied tenders cover the total.
//
// Tender policy lives in data, not in scattered string comparisons: each Kind
// carries the flags the engine and the orchestrator act on.
package tender

// Code identifies a tender kind.
type Code string

const (
	Cash        Code = "cash"
	Debit       Code = "debit"
	Credit      Code = "credit"
	Transfer    Code = "transfer"
	Cheque      Code = "cheque"
	Boleto      Code = "boleto"
	Deposit     Code = "deposit"
	StoreCredit Code = "store_credit"
	// Receivable settles an outstanding customer receivable in cash at the
	// drawer; it posts a RECEIPT cash movement.
	Receivable Code = "receivable"
)

// Kind describes one tender type and its policies.
type Kind struct {
	Code  Code
	Label string
	// RequiresCustomer: the sale must carry an identified customer.
	RequiresCustomer bool
	// RequiresTerminalAuth: the payment terminal must approve before the
	// amount is recorded.
	RequiresTerminalAuth bool
	// RequiresCheque: a structured cheque record must be captured first.
	RequiresCheque bool
	// CashEquivalent: finalization posts a cash movement for this tender.
	CashEquivalent bool
}

var kinds = []Kind{
	{Code: Cash, Label: "Cash", CashEquivalent: true},
	{Code: Debit, Label: "Debit card", RequiresTerminalAuth: true},
	{Code: Credit, Label: "Credit card", RequiresTerminalAuth: true},
	{Code: Transfer, Label: "Bank transfer"},
	{Code: Cheque, Label: "Cheque", RequiresCustomer: true, RequiresCheque: true},
	{Code: Boleto, Label: "Boleto", RequiresCustomer: true},
	{Code: Deposit, Label: "Bank deposit", RequiresCustomer: true},
	{Code: StoreCredit, Label: "Store credit", RequiresCustomer: true},
	{Code: Receivable, Label: "Receivable receipt", RequiresCustomer: true, CashEquivalent: true},
}

// KindOf resolves a code to its Kind.
func KindOf(code Code) (Kind, bool) {
	for _, k := range kinds {
		if k.Code == code {
			return k, true
		}
	}
	return Kind{}, false
}

// Kinds returns the full tender table.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}
