package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/tender"
)

// In-memory repository stubs. DB() returns nil so runTx executes the
// transaction body directly.

// ── CashRepository ───────────────────────────────────────────────────────────

type stubCashRepo struct {
	sessions  map[uuid.UUID]*model.CashSession
	movements []model.CashMovement
}

func newStubCashRepo() *stubCashRepo {
	return &stubCashRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *stubCashRepo) DB() *gorm.DB { return nil }

func (r *stubCashRepo) CreateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *stubCashRepo) FindOpenSession(_ context.Context) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.Status == "open" {
			return s, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubCashRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (r *stubCashRepo) UpdateSession(_ context.Context, s *model.CashSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubCashRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	return r.CreateMovementTx(nil, m)
}

func (r *stubCashRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubCashRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubCashRepo) SumMovements(_ context.Context, sessionID *uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.movements {
		if sessionID != nil && m.SessionID != *sessionID {
			continue
		}
		if m.Type == model.MovementWithdrawal {
			sum = sum.Sub(m.Amount)
		} else {
			sum = sum.Add(m.Amount)
		}
	}
	return sum, nil
}

// ── SaleRepository ───────────────────────────────────────────────────────────

type stubSaleRepo struct {
	sales      map[uuid.UUID]*model.Sale
	nextTicket int
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (r *stubSaleRepo) NextTicketNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.nextTicket++
	return r.nextTicket, nil
}

func (r *stubSaleRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.SessionID == sessionID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// ── Catalog / customer / operator ────────────────────────────────────────────

type stubProductRepo struct {
	products map[string]*model.Product
}

func newStubProductRepo(products ...*model.Product) *stubProductRepo {
	r := &stubProductRepo{products: make(map[string]*model.Product)}
	for _, p := range products {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.products[p.Code] = p
	}
	return r
}

func (r *stubProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	p, ok := r.products[code]
	if !ok || !p.Active {
		return nil, errors.New("not found")
	}
	return p, nil
}

type stubCustomerRepo struct {
	customers map[string]*model.Customer
}

func newStubCustomerRepo(customers ...*model.Customer) *stubCustomerRepo {
	r := &stubCustomerRepo{customers: make(map[string]*model.Customer)}
	for _, c := range customers {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.customers[c.Document] = c
	}
	return r
}

func (r *stubCustomerRepo) FindByDocument(_ context.Context, document string) (*model.Customer, error) {
	c, ok := r.customers[document]
	if !ok || !c.Active {
		return nil, errors.New("not found")
	}
	return c, nil
}

type stubOperatorRepo struct {
	operators map[string]*model.Operator
}

func newStubOperatorRepo(operators ...*model.Operator) *stubOperatorRepo {
	r := &stubOperatorRepo{operators: make(map[string]*model.Operator)}
	for _, o := range operators {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		r.operators[o.Username] = o
	}
	return r
}

func (r *stubOperatorRepo) FindByUsername(_ context.Context, username string) (*model.Operator, error) {
	o, ok := r.operators[username]
	if !ok || !o.Active {
		return nil, errors.New("not found")
	}
	return o, nil
}

func (r *stubOperatorRepo) Create(_ context.Context, o *model.Operator) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.operators[o.Username] = o
	return nil
}

// ── FiscalRepository ─────────────────────────────────────────────────────────

type stubFiscalRepo struct {
	docs map[uuid.UUID]*model.FiscalDocument
}

func newStubFiscalRepo() *stubFiscalRepo {
	return &stubFiscalRepo{docs: make(map[uuid.UUID]*model.FiscalDocument)}
}

func (r *stubFiscalRepo) Create(_ context.Context, d *model.FiscalDocument) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	r.docs[d.ID] = d
	return nil
}

func (r *stubFiscalRepo) Update(_ context.Context, d *model.FiscalDocument) error {
	r.docs[d.ID] = d
	return nil
}

func (r *stubFiscalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.FiscalDocument, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

func (r *stubFiscalRepo) FindBySaleID(_ context.Context, saleID uuid.UUID) (*model.FiscalDocument, error) {
	for _, d := range r.docs {
		if d.SaleID == saleID {
			return d, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubFiscalRepo) ListDueRetries(_ context.Context, now time.Time, limit int) ([]model.FiscalDocument, error) {
	var out []model.FiscalDocument
	for _, d := range r.docs {
		if d.Status == "pending" && d.NextRetryAt != nil && !d.NextRetryAt.After(now) {
			out = append(out, *d)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ── Terminal authorizer fake ─────────────────────────────────────────────────

type fakeAuthorizer struct {
	approve bool
	message string
	calls   int
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, _ decimal.Decimal, _ tender.Code) (*tender.AuthResult, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !f.approve {
		return &tender.AuthResult{Approved: false, Message: f.message}, nil
	}
	return &tender.AuthResult{Approved: true, TransactionID: "TX-1", AuthorizationCode: "OK-1"}, nil
}
