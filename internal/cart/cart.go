// Package cart implements the in-memory sale ledger: line items, reversal
// (cancellation) lines, and per-item/per-sale discounts. Lines are
// append-only — cancelling quantity never mutates the original line's
// quantity, it adds a negative-quantity entry, preserving auditability.
//
// The ledger is transient: nothing here touches storage. It is cleared when
// the sale finalizes or is voided.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/money"
)

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	DiscountPercent  DiscountKind = "percent"
	DiscountAbsolute DiscountKind = "absolute"
)

// Line is one ledger entry. Cancellation lines carry negative quantity and
// total and never hold a discount of their own.
type Line struct {
	Sequence        int
	Code            string
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Gross           decimal.Decimal
	Discount        decimal.Decimal
	DiscountKind    DiscountKind
	DiscountPercent decimal.Decimal
	DiscountReason  string
	Total           decimal.Decimal
	Cancellation    bool
}

// Totals is the running breakdown of the ledger.
// Net = Subtotal − ItemDiscounts + Cancellations (cancellation totals are
// already negative).
type Totals struct {
	Subtotal      decimal.Decimal
	ItemDiscounts decimal.Decimal
	Cancellations decimal.Decimal
	Net           decimal.Decimal
}

// SaleDiscount is the whole-sale discount candidate. The effective amount is
// recomputed against the current net, so later line changes cannot leave a
// stale figure behind.
type SaleDiscount struct {
	Kind   DiscountKind
	Value  decimal.Decimal
	Reason string
}

// Ledger holds the lines of the sale in progress. Single-writer: one cart
// per terminal, no internal locking.
type Ledger struct {
	maxDiscountPct decimal.Decimal
	lines          []*Line
	nextSeq        int
	saleDiscount   *SaleDiscount
}

// New creates an empty ledger with the configured maximum discount percent
// (applies to both item and sale discounts).
func New(maxDiscountPct decimal.Decimal) *Ledger {
	return &Ledger{maxDiscountPct: maxDiscountPct, nextSeq: 1}
}

// AddOrMerge registers quantity of an item. When a non-cancellation line with
// the same code already exists, its quantity grows and its total is
// recomputed; otherwise a new line is appended. Quantity ≤ 0 is coerced to 1.
func (l *Ledger) AddOrMerge(code, description string, quantity, unitPrice decimal.Decimal) *Line {
	if quantity.LessThanOrEqual(decimal.Zero) {
		quantity = decimal.NewFromInt(1)
	}
	for _, ln := range l.lines {
		if !ln.Cancellation && ln.Code == code {
			ln.Quantity = ln.Quantity.Add(quantity)
			recompute(ln)
			return ln
		}
	}
	ln := &Line{
		Sequence:    l.nextSeq,
		Code:        code,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}
	l.nextSeq++
	recompute(ln)
	l.lines = append(l.lines, ln)
	return ln
}

// CancelQuantity appends a reversal line for |quantity| units. When the
// original line carries a discount, the discount is proportionally reduced by
// round(discount/originalQty × cancelledQty, 2), floored at zero, and the
// original total recomputed. Availability (sold minus already cancelled) is
// the caller's responsibility; AvailableQuantity exists for that check.
func (l *Ledger) CancelQuantity(code, description string, quantity, unitPrice decimal.Decimal) (*Line, error) {
	quantity = quantity.Abs()
	if quantity.IsZero() {
		return nil, apperr.New(apperr.Validation, "cancellation quantity must be greater than zero")
	}

	if orig := l.findActive(code); orig != nil && orig.Discount.IsPositive() {
		perUnit := orig.Discount.Div(orig.Quantity)
		reduction := money.Round2(perUnit.Mul(quantity))
		orig.Discount = orig.Discount.Sub(reduction)
		if orig.Discount.IsNegative() {
			orig.Discount = decimal.Zero
		}
		recompute(orig)
	}

	ln := &Line{
		Sequence:     l.nextSeq,
		Code:         code,
		Description:  description,
		Quantity:     quantity.Neg(),
		UnitPrice:    unitPrice,
		Cancellation: true,
	}
	l.nextSeq++
	recompute(ln)
	l.lines = append(l.lines, ln)
	return ln, nil
}

// ApplyItemDiscount applies a discount to the line with the given sequence.
// Percent values above the cap, and absolute values above cap% of the line
// gross, are rejected without mutating anything.
func (l *Ledger) ApplyItemDiscount(sequence int, kind DiscountKind, value decimal.Decimal, reason string) error {
	var ln *Line
	for _, cand := range l.lines {
		if cand.Sequence == sequence {
			ln = cand
			break
		}
	}
	if ln == nil {
		return apperr.Newf(apperr.NotFound, "no cart line with sequence %d", sequence)
	}
	if ln.Cancellation {
		return apperr.New(apperr.Validation, "cancellation lines cannot be discounted")
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return apperr.New(apperr.Validation, "discount value must be greater than zero")
	}

	var amount, pct decimal.Decimal
	switch kind {
	case DiscountPercent:
		if value.GreaterThan(l.maxDiscountPct) {
			return apperr.Newf(apperr.Policy, "discount of %s%% exceeds the %s%% limit", value, l.maxDiscountPct)
		}
		amount = money.Percent(ln.Gross, value)
		pct = value
	case DiscountAbsolute:
		limit := money.Percent(ln.Gross, l.maxDiscountPct)
		if value.GreaterThan(limit) {
			return apperr.Newf(apperr.Policy, "discount of %s exceeds the limit of %s (%s%%)", value, limit, l.maxDiscountPct)
		}
		amount = money.Round2(value)
		pct = money.ImpliedPercent(amount, ln.Gross)
	default:
		return apperr.Newf(apperr.Validation, "unknown discount kind %q", kind)
	}

	ln.Discount = amount
	ln.DiscountKind = kind
	ln.DiscountPercent = pct
	ln.DiscountReason = reason
	recompute(ln)
	return nil
}

// ApplySaleDiscount validates and stores the whole-sale discount candidate.
// Absolute discounts must not exceed the current net, and their implied
// percentage must also honor the cap.
func (l *Ledger) ApplySaleDiscount(kind DiscountKind, value decimal.Decimal, reason string) error {
	if value.LessThanOrEqual(decimal.Zero) {
		return apperr.New(apperr.Validation, "discount value must be greater than zero")
	}
	net := l.Totals().Net
	switch kind {
	case DiscountPercent:
		if value.GreaterThan(l.maxDiscountPct) {
			return apperr.Newf(apperr.Policy, "discount of %s%% exceeds the %s%% limit", value, l.maxDiscountPct)
		}
	case DiscountAbsolute:
		if value.GreaterThan(net) {
			return apperr.Newf(apperr.Policy, "discount of %s exceeds the sale total of %s", value, net)
		}
		if money.ImpliedPercent(value, net).GreaterThan(l.maxDiscountPct) {
			return apperr.Newf(apperr.Policy, "discount of %s exceeds the %s%% limit", value, l.maxDiscountPct)
		}
	default:
		return apperr.Newf(apperr.Validation, "unknown discount kind %q", kind)
	}
	l.saleDiscount = &SaleDiscount{Kind: kind, Value: value, Reason: reason}
	return nil
}

// Totals recomputes the running breakdown from scratch on every call.
func (l *Ledger) Totals() Totals {
	var t Totals
	for _, ln := range l.lines {
		if ln.Cancellation {
			t.Cancellations = t.Cancellations.Add(ln.Total)
			continue
		}
		t.Subtotal = t.Subtotal.Add(ln.Gross)
		t.ItemDiscounts = t.ItemDiscounts.Add(ln.Discount)
	}
	t.Net = t.Subtotal.Sub(t.ItemDiscounts).Add(t.Cancellations)
	return t
}

// SaleDiscountAmount resolves the current sale-discount amount against the
// present net. Absolute discounts are re-clamped to maxDiscountPct% of net
// (and so to net itself): cancellations after the discount was accepted
// shrink the base, and the stored value must not outgrow the cap.
func (l *Ledger) SaleDiscountAmount() decimal.Decimal {
	if l.saleDiscount == nil {
		return decimal.Zero
	}
	net := l.Totals().Net
	if l.saleDiscount.Kind == DiscountPercent {
		return money.Percent(net, l.saleDiscount.Value)
	}
	amount := money.Round2(l.saleDiscount.Value)
	if limit := money.Percent(net, l.maxDiscountPct); amount.GreaterThan(limit) {
		amount = limit
	}
	return amount
}

// FinalTotal is net minus the sale discount: the amount payment allocation
// must cover.
func (l *Ledger) FinalTotal() decimal.Decimal {
	return l.Totals().Net.Sub(l.SaleDiscountAmount())
}

// SaleDiscount returns the stored candidate, if any.
func (l *Ledger) SaleDiscount() (SaleDiscount, bool) {
	if l.saleDiscount == nil {
		return SaleDiscount{}, false
	}
	return *l.saleDiscount, true
}

// AvailableQuantity reports how much of a code can still be cancelled:
// quantity sold minus quantity already reversed.
func (l *Ledger) AvailableQuantity(code string) decimal.Decimal {
	avail := decimal.Zero
	for _, ln := range l.lines {
		if ln.Code == code {
			avail = avail.Add(ln.Quantity)
		}
	}
	return avail
}

// Lines returns a snapshot copy of the ledger entries.
func (l *Ledger) Lines() []Line {
	out := make([]Line, 0, len(l.lines))
	for _, ln := range l.lines {
		out = append(out, *ln)
	}
	return out
}

// Empty reports whether the ledger holds no lines.
func (l *Ledger) Empty() bool { return len(l.lines) == 0 }

// Clear drops every line and the sale discount. Called on finalize and void.
func (l *Ledger) Clear() {
	l.lines = nil
	l.nextSeq = 1
	l.saleDiscount = nil
}

func (l *Ledger) findActive(code string) *Line {
	for _, ln := range l.lines {
		if !ln.Cancellation && ln.Code == code {
			return ln
		}
	}
	return nil
}

// recompute maintains the line invariant total = round(unitPrice×qty − discount, 2).
func recompute(ln *Line) {
	ln.Gross = money.Round2(ln.UnitPrice.Mul(ln.Quantity))
	ln.Total = money.Round2(ln.UnitPrice.Mul(ln.Quantity).Sub(ln.Discount))
}
