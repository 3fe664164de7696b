package tender

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/money"
)

// DefaultAuthTimeout bounds terminal authorization calls. The engine never
// hangs on the payment terminal: the call resolves to approved, declined, or
// timeout.
const DefaultAuthTimeout = 120 * time.Second

// AuthResult is the payment terminal's answer to an authorization request.
type AuthResult struct {
	Approved          bool
	Message           string
	TransactionID     string
	AuthorizationCode string
}

// TerminalAuthorizer is the payment-terminal collaborator. Implementations
// must honor ctx cancellation/deadline.
type TerminalAuthorizer interface {
	Authorize(ctx context.Context, amount decimal.Decimal, kind Code) (*AuthResult, error)
}

// ChequeRecord is the structured result of cheque capture.
type ChequeRecord struct {
	Payee          string
	Bank           string
	DocumentNumber string
	DueDate        time.Time
}

// ChequeCapturer collects cheque details from the operator. A cancelled
// capture returns an error; the engine records nothing in that case.
type ChequeCapturer interface {
	Capture(ctx context.Context, amount decimal.Decimal) (*ChequeRecord, error)
}

// Applied is one tender recorded against the sale, ordered by Sequence.
type Applied struct {
	Sequence int
	Kind     Kind
	Amount   decimal.Decimal
	Cheque   *ChequeRecord
	Auth     *AuthResult
}

// Engine runs the Collecting → Settled state machine for a single sale.
// There is no failure terminal state: abandoning payment simply discards the
// engine. Single-writer, no internal locking.
type Engine struct {
	total       decimal.Decimal
	hasCustomer bool
	active      *Kind
	applied     []Applied
	nextSeq     int
	authorizer  TerminalAuthorizer
	cheques     ChequeCapturer
	authTimeout time.Duration
}

// NewEngine opens payment collection for a sale total.
func NewEngine(total decimal.Decimal, authorizer TerminalAuthorizer, cheques ChequeCapturer, authTimeout time.Duration) *Engine {
	if authTimeout <= 0 {
		authTimeout = DefaultAuthTimeout
	}
	return &Engine{
		total:       money.Round2(total),
		nextSeq:     1,
		authorizer:  authorizer,
		cheques:     cheques,
		authTimeout: authTimeout,
	}
}

// SetCustomerAttached tells the engine whether an identified customer is on
// the sale; customer-required tenders check this at selection time.
func (e *Engine) SetCustomerAttached(attached bool) { e.hasCustomer = attached }

// SelectTender sets the active tender. Kinds requiring a customer fail when
// none is attached, leaving the previous selection in place.
func (e *Engine) SelectTender(code Code) error {
	k, ok := KindOf(code)
	if !ok {
		return apperr.Newf(apperr.Validation, "unknown tender %q", code)
	}
	if k.RequiresCustomer && !e.hasCustomer {
		return apperr.Newf(apperr.Policy, "tender %q requires an identified customer", k.Label)
	}
	e.active = &k
	return nil
}

// ActiveKind returns the currently selected tender, when any.
func (e *Engine) ActiveKind() (Kind, bool) {
	if e.active == nil {
		return Kind{}, false
	}
	return *e.active, true
}

// ApplyAmount records amount against the active tender. The amount is
// clamped to the remaining balance, so the applied total can never exceed
// the sale total. External confirmations (cheque capture, terminal
// authorization) must succeed first; any failure or cancellation leaves the
// engine unchanged.
func (e *Engine) ApplyAmount(ctx context.Context, amount decimal.Decimal) (*Applied, error) {
	if e.active == nil {
		return nil, apperr.New(apperr.Validation, "no tender selected")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.Validation, "amount must be greater than zero")
	}
	remaining := e.Remaining()
	if remaining.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.Validation, "sale is already fully settled")
	}
	if amount.GreaterThan(remaining) {
		amount = remaining
	}
	amount = money.Round2(amount)

	entry := Applied{Sequence: e.nextSeq, Kind: *e.active, Amount: amount}

	if e.active.RequiresCheque {
		if e.cheques == nil {
			return nil, apperr.New(apperr.External, "cheque capture is not available")
		}
		rec, err := e.cheques.Capture(ctx, amount)
		if err != nil {
			return nil, apperr.Wrap(apperr.External, "cheque capture failed", err)
		}
		entry.Cheque = rec
	}

	if e.active.RequiresTerminalAuth {
		if e.authorizer == nil {
			return nil, apperr.New(apperr.External, "payment terminal is not available")
		}
		authCtx, cancel := context.WithTimeout(ctx, e.authTimeout)
		defer cancel()
		res, err := e.authorizer.Authorize(authCtx, amount, e.active.Code)
		if err != nil {
			return nil, apperr.Wrap(apperr.External, "terminal authorization failed", err)
		}
		if !res.Approved {
			msg := res.Message
			if msg == "" {
				msg = "authorization declined"
			}
			return nil, apperr.New(apperr.External, msg)
		}
		entry.Auth = res
	}

	e.nextSeq++
	e.applied = append(e.applied, entry)
	return &entry, nil
}

// Remove discards a previously applied tender. Allowed any time before
// finalization.
func (e *Engine) Remove(sequence int) error {
	for i, a := range e.applied {
		if a.Sequence == sequence {
			e.applied = append(e.applied[:i], e.applied[i+1:]...)
			return nil
		}
	}
	return apperr.Newf(apperr.NotFound, "no applied tender with sequence %d", sequence)
}

// AppliedTotal is the sum of recorded tenders.
func (e *Engine) AppliedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range e.applied {
		total = total.Add(a.Amount)
	}
	return total
}

// Remaining is the shortfall still to be covered.
func (e *Engine) Remaining() decimal.Decimal { return e.total.Sub(e.AppliedTotal()) }

// IsSettled reports whether applied tenders cover the sale total.
func (e *Engine) IsSettled() bool { return e.AppliedTotal().GreaterThanOrEqual(e.total) }

// Total is the sale total this engine was opened with.
func (e *Engine) Total() decimal.Decimal { return e.total }

// Applied returns the recorded tenders in application order.
func (e *Engine) Applied() []Applied {
	out := make([]Applied, len(e.applied))
	copy(out, e.applied)
	return out
}
