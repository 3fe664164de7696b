// Package terminal holds the in-memory state of each point-of-sale
// register: who is logged on, the cart being built and, once payment
// starts, the tender engine. State is per register number and lives for
// the duration of the process; everything durable goes through the
// repositories at finalize time.
package terminal

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zachow1/pdv-medusax8-sub000/internal/cart"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/tender"
)

// SessionContext identifies the operator and cash session bound to a
// register. It replaces any notion of process-wide "current operator".
type SessionContext struct {
	OperatorID     uuid.UUID
	OperatorName   string
	Role           string
	RegisterNumber int
	SessionID      uuid.UUID
}

// Terminal is the live state of one register.
type Terminal struct {
	mu sync.Mutex

	Register    int
	Session     SessionContext
	Cart        *cart.Ledger
	Engine      *tender.Engine
	Customer    *model.Customer
	SaleStarted bool
	// PendingCheque holds the cheque details for the in-flight apply call;
	// the engine's capture collaborator reads and consumes it.
	PendingCheque *tender.ChequeRecord
}

func newTerminal(register int, sess SessionContext, maxDiscountPct decimal.Decimal) *Terminal {
	return &Terminal{
		Register: register,
		Session:  sess,
		Cart:     cart.New(maxDiscountPct),
	}
}

// Lock takes the terminal's mutex. Callers must hold it across any
// read-modify sequence on the cart or engine and Unlock when done.
func (t *Terminal) Lock()   { t.mu.Lock() }
func (t *Terminal) Unlock() { t.mu.Unlock() }

// InPayment reports whether a tender engine is active.
func (t *Terminal) InPayment() bool { return t.Engine != nil }

// ResetSale clears the cart, the customer and the payment engine,
// returning the terminal to the idle state.
func (t *Terminal) ResetSale() {
	t.Cart.Clear()
	t.Engine = nil
	t.Customer = nil
	t.SaleStarted = false
	t.PendingCheque = nil
}

// Registry tracks the terminals of this process keyed by register number.
type Registry struct {
	mu        sync.Mutex
	terminals map[int]*Terminal
}

func NewRegistry() *Registry {
	return &Registry{terminals: make(map[int]*Terminal)}
}

// Bind creates (or rebinds) the terminal for a register when an operator
// signs on. A fresh sign-on on an existing register keeps the register's
// entry but replaces its session context and clears any stale sale.
func (r *Registry) Bind(register int, sess SessionContext, maxDiscountPct decimal.Decimal) *Terminal {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.terminals[register]
	if !ok {
		t = newTerminal(register, sess, maxDiscountPct)
		r.terminals[register] = t
		return t
	}
	t.Lock()
	t.Session = sess
	t.ResetSale()
	t.Unlock()
	return t
}

// Get returns the terminal for a register, or nil when no operator has
// signed on there yet.
func (r *Registry) Get(register int) *Terminal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminals[register]
}

// Release drops the terminal for a register after its session closes.
func (r *Registry) Release(register int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.terminals, register)
}

// Reset drops every terminal. Called when the cash session closes: any
// terminal state bound to it is void.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminals = make(map[int]*Terminal)
}

// ActiveSale returns the register number of a terminal with a sale in
// progress (non-empty cart or open payment), when any.
func (r *Registry) ActiveSale() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for reg, t := range r.terminals {
		t.Lock()
		busy := !t.Cart.Empty() || t.InPayment()
		t.Unlock()
		if busy {
			return reg, true
		}
	}
	return 0, false
}
