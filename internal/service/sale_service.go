package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/cart"
	"github.com/zachow1/pdv-medusax8-sub000/internal/config"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/money"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
	"github.com/zachow1/pdv-medusax8-sub000/internal/tender"
	"github.com/zachow1/pdv-medusax8-sub000/internal/terminal"
	"github.com/zachow1/pdv-medusax8-sub000/internal/worker"
)

// Supervisor-gated action names, matching the SUPERVISOR_ACTIONS config list.
const (
	ActionPriceChange   = "price_change"
	ActionCancelItem    = "cancel_item"
	ActionSettlePayment = "settle_payment"
)

// SaleService orchestrates the sale flow of one register: cart entry,
// discounts, payment collection and the finalize transaction. All transient
// state lives on the register's terminal; this service holds no sale state
// of its own.
type SaleService interface {
	StartSale(ctx context.Context, actor terminal.SessionContext) error
	AddItem(ctx context.Context, actor terminal.SessionContext, req dto.AddItemRequest) (*dto.CartResponse, error)
	CancelItem(ctx context.Context, actor terminal.SessionContext, req dto.CancelItemRequest) (*dto.CartResponse, error)
	ApplyItemDiscount(ctx context.Context, actor terminal.SessionContext, sequence int, req dto.ItemDiscountRequest) (*dto.CartResponse, error)
	ApplySaleDiscount(ctx context.Context, actor terminal.SessionContext, req dto.SaleDiscountRequest) (*dto.CartResponse, error)
	Cart(ctx context.Context, actor terminal.SessionContext) (*dto.CartResponse, error)
	AttachCustomer(ctx context.Context, actor terminal.SessionContext, req dto.AttachCustomerRequest) (*dto.CartResponse, error)
	SelectTender(ctx context.Context, actor terminal.SessionContext, req dto.SelectTenderRequest) (*dto.PaymentStateResponse, error)
	ApplyTender(ctx context.Context, actor terminal.SessionContext, req dto.ApplyTenderRequest) (*dto.PaymentStateResponse, error)
	RemoveTender(ctx context.Context, actor terminal.SessionContext, sequence int) (*dto.PaymentStateResponse, error)
	Finalize(ctx context.Context, actor terminal.SessionContext, req dto.FinalizeRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, actor terminal.SessionContext) error
}

type saleService struct {
	saleRepo   repository.SaleRepository
	cashRepo   repository.CashRepository
	customers  repository.CustomerRepository
	catalog    CatalogService
	cash       CashService
	auth       AuthService
	registry   *terminal.Registry
	authorizer tender.TerminalAuthorizer
	dispatcher *worker.Dispatcher
	cfg        *config.Config
	gated      map[string]bool
	maxPct     decimal.Decimal
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	cashRepo repository.CashRepository,
	customers repository.CustomerRepository,
	catalog CatalogService,
	cash CashService,
	auth AuthService,
	registry *terminal.Registry,
	authorizer tender.TerminalAuthorizer,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) SaleService {
	return &saleService{
		saleRepo:   saleRepo,
		cashRepo:   cashRepo,
		customers:  customers,
		catalog:    catalog,
		cash:       cash,
		auth:       auth,
		registry:   registry,
		authorizer: authorizer,
		dispatcher: dispatcher,
		cfg:        cfg,
		gated:      cfg.SupervisorActionSet(),
		maxPct:     decimal.NewFromFloat(cfg.MaxDiscountPercent),
	}
}

// terminalFor resolves the actor's terminal, binding it to the open cash
// session. Every operation requires an open session; a terminal bound to a
// closed session is reset and rebound.
func (s *saleService) terminalFor(ctx context.Context, actor terminal.SessionContext) (*terminal.Terminal, error) {
	open, err := s.cash.FindOpen(ctx)
	if err != nil {
		return nil, err
	}
	actor.SessionID = open.ID

	t := s.registry.Get(actor.RegisterNumber)
	if t == nil {
		return s.registry.Bind(actor.RegisterNumber, actor, s.maxPct), nil
	}
	t.Lock()
	if t.Session.SessionID != actor.SessionID {
		t.Session = actor
		t.ResetSale()
	} else {
		t.Session = actor
	}
	t.Unlock()
	return t, nil
}

// requireSupervisor enforces re-authentication for gated actions. Actions
// not listed in the configuration pass through.
func (s *saleService) requireSupervisor(ctx context.Context, action string, code, password *string) error {
	if !s.gated[action] {
		return nil
	}
	if code == nil || password == nil || *code == "" || *password == "" {
		return apperr.Newf(apperr.Policy, "action %q requires supervisor authorization", action)
	}
	_, err := s.auth.AuthorizeSupervisor(ctx, *code, *password, action)
	return err
}

// StartSale flags the terminal's sale as started. Idempotent; a no-op unless
// the start-sale gate is enabled.
func (s *saleService) StartSale(ctx context.Context, actor terminal.SessionContext) error {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return err
	}
	t.Lock()
	t.SaleStarted = true
	t.Unlock()
	return nil
}

func (s *saleService) AddItem(ctx context.Context, actor terminal.SessionContext, req dto.AddItemRequest) (*dto.CartResponse, error) {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	p, err := s.catalog.FindProduct(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if err := s.cartEntryAllowed(t); err != nil {
		return nil, err
	}
	t.Cart.AddOrMerge(p.Code, p.Description, req.Quantity, p.UnitPrice)
	return cartToResponse(t), nil
}

func (s *saleService) CancelItem(ctx context.Context, actor terminal.SessionContext, req dto.CancelItemRequest) (*dto.CartResponse, error) {
	if err := s.requireSupervisor(ctx, ActionCancelItem, req.SupervisorCode, req.SupervisorPassword); err != nil {
		return nil, err
	}
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if err := s.cartEntryAllowed(t); err != nil {
		return nil, err
	}

	var orig *cart.Line
	for _, ln := range t.Cart.Lines() {
		if !ln.Cancellation && ln.Code == req.Code {
			l := ln
			orig = &l
			break
		}
	}
	if orig == nil {
		return nil, apperr.Newf(apperr.NotFound, "item %q is not on the sale", req.Code)
	}

	qty := req.Quantity.Abs()
	if qty.GreaterThan(t.Cart.AvailableQuantity(req.Code)) {
		return nil, apperr.New(apperr.Validation, "cancellation exceeds the quantity sold")
	}

	if _, err := t.Cart.CancelQuantity(orig.Code, orig.Description, qty, orig.UnitPrice); err != nil {
		return nil, err
	}
	return cartToResponse(t), nil
}

func (s *saleService) ApplyItemDiscount(ctx context.Context, actor terminal.SessionContext, sequence int, req dto.ItemDiscountRequest) (*dto.CartResponse, error) {
	if err := s.requireSupervisor(ctx, ActionPriceChange, req.SupervisorCode, req.SupervisorPassword); err != nil {
		return nil, err
	}
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if err := s.cartEntryAllowed(t); err != nil {
		return nil, err
	}
	if err := t.Cart.ApplyItemDiscount(sequence, cart.DiscountKind(req.Kind), req.Value, req.Reason); err != nil {
		return nil, err
	}
	return cartToResponse(t), nil
}

func (s *saleService) ApplySaleDiscount(ctx context.Context, actor terminal.SessionContext, req dto.SaleDiscountRequest) (*dto.CartResponse, error) {
	if err := s.requireSupervisor(ctx, ActionPriceChange, req.SupervisorCode, req.SupervisorPassword); err != nil {
		return nil, err
	}
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if err := s.cartEntryAllowed(t); err != nil {
		return nil, err
	}
	if err := t.Cart.ApplySaleDiscount(cart.DiscountKind(req.Kind), req.Value, req.Reason); err != nil {
		return nil, err
	}
	return cartToResponse(t), nil
}

func (s *saleService) Cart(ctx context.Context, actor terminal.SessionContext) (*dto.CartResponse, error) {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	t.Lock()
	defer t.Unlock()
	return cartToResponse(t), nil
}

// AttachCustomer identifies the buyer; an empty document detaches. Allowed
// during payment so customer-required tenders can be retried after attach.
func (s *saleService) AttachCustomer(ctx context.Context, actor terminal.SessionContext, req dto.AttachCustomerRequest) (*dto.CartResponse, error) {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	var customer *model.Customer
	if req.Document != "" {
		customer, err = s.customers.FindByDocument(ctx, req.Document)
		if err != nil {
			return nil, apperr.Newf(apperr.NotFound, "no customer with document %q", req.Document)
		}
	}

	t.Lock()
	defer t.Unlock()
	t.Customer = customer
	if t.Engine != nil {
		t.Engine.SetCustomerAttached(customer != nil)
	}
	return cartToResponse(t), nil
}

// SelectTender opens payment collection on first use (freezing the cart) and
// sets the active tender.
func (s *saleService) SelectTender(ctx context.Context, actor terminal.SessionContext, req dto.SelectTenderRequest) (*dto.PaymentStateResponse, error) {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if t.Engine == nil {
		if t.Cart.Empty() {
			return nil, apperr.New(apperr.Validation, "cart is empty")
		}
		timeout := time.Duration(s.cfg.TerminalTimeoutSeconds) * time.Second
		t.Engine = tender.NewEngine(t.Cart.FinalTotal(), s.authorizer, &terminalCheques{t: t}, timeout)
	}
	t.Engine.SetCustomerAttached(t.Customer != nil)
	if err := t.Engine.SelectTender(tender.Code(req.Code)); err != nil {
		return nil, err
	}
	return paymentStateResponse(t.Engine), nil
}

func (s *saleService) ApplyTender(ctx context.Context, actor terminal.SessionContext, req dto.ApplyTenderRequest) (*dto.PaymentStateResponse, error) {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if t.Engine == nil {
		return nil, apperr.New(apperr.Validation, "no payment in progress")
	}

	if kind, ok := t.Engine.ActiveKind(); ok && kind.RequiresCheque {
		rec, err := parseCheque(req.Cheque)
		if err != nil {
			return nil, err
		}
		t.PendingCheque = rec
	}
	defer func() { t.PendingCheque = nil }()

	if _, err := t.Engine.ApplyAmount(ctx, req.Amount); err != nil {
		return nil, err
	}
	return paymentStateResponse(t.Engine), nil
}

func (s *saleService) RemoveTender(ctx context.Context, actor terminal.SessionContext, sequence int) (*dto.PaymentStateResponse, error) {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if t.Engine == nil {
		return nil, apperr.New(apperr.Validation, "no payment in progress")
	}
	if err := t.Engine.Remove(sequence); err != nil {
		return nil, err
	}
	return paymentStateResponse(t.Engine), nil
}

// Finalize persists the sale, its items and tenders, and the cash movements
// for cash-equivalent tenders in one transaction. The cart and engine clear
// only after commit; the fiscal job is enqueued post-commit, best effort.
func (s *saleService) Finalize(ctx context.Context, actor terminal.SessionContext, req dto.FinalizeRequest) (*dto.SaleResponse, error) {
	if err := s.requireSupervisor(ctx, ActionSettlePayment, req.SupervisorCode, req.SupervisorPassword); err != nil {
		return nil, err
	}
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	t.Lock()
	defer t.Unlock()
	if t.Engine == nil {
		return nil, apperr.New(apperr.Validation, "no payment in progress")
	}
	if !t.Engine.IsSettled() {
		return nil, apperr.Newf(apperr.InsufficientPayment,
			"payment incomplete: %s remaining", t.Engine.Remaining().StringFixed(2))
	}
	if t.Cart.Empty() {
		return nil, apperr.New(apperr.Validation, "cart is empty")
	}

	sale := s.buildSale(t)
	applied := t.Engine.Applied()

	txErr := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		ticket, err := s.saleRepo.NextTicketNumber(ctx, tx)
		if err != nil {
			return err
		}
		sale.TicketNumber = ticket

		if err := s.saleRepo.Create(ctx, tx, sale); err != nil {
			return err
		}

		if !s.cfg.RecordSaleMovements {
			return nil
		}
		for _, a := range applied {
			if !a.Kind.CashEquivalent {
				continue
			}
			mov := &model.CashMovement{
				SessionID:   t.Session.SessionID,
				Type:        model.MovementSale,
				Amount:      a.Amount,
				Reason:      fmt.Sprintf("Sale #%d", ticket),
				OperatorID:  t.Session.OperatorID,
				ReferenceID: &sale.ID,
			}
			if err := s.cashRepo.CreateMovementTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not finalize sale", txErr)
	}

	s.enqueueFiscal(ctx, t, sale, req.CustomerEmail)

	resp := saleToResponse(sale)
	t.ResetSale()
	return resp, nil
}

// Cancel voids the sale in progress. The cash ledger is never touched:
// nothing was persisted yet.
func (s *saleService) Cancel(ctx context.Context, actor terminal.SessionContext) error {
	t, err := s.terminalFor(ctx, actor)
	if err != nil {
		return err
	}
	t.Lock()
	t.ResetSale()
	t.Unlock()
	return nil
}

// ─── Internals ───────────────────────────────────────────────────────────────

// cartEntryAllowed rejects cart mutation once payment collection started and
// enforces the optional start-sale gate.
func (s *saleService) cartEntryAllowed(t *terminal.Terminal) error {
	if t.Engine != nil {
		return apperr.New(apperr.Policy, "payment in progress, cancel it to modify the sale")
	}
	if s.cfg.RequireSaleStart && !t.SaleStarted {
		return apperr.New(apperr.Policy, "sale has not been started")
	}
	return nil
}

func (s *saleService) buildSale(t *terminal.Terminal) *model.Sale {
	totals := t.Cart.Totals()
	discount := t.Cart.SaleDiscountAmount()

	sale := &model.Sale{
		SessionID:      t.Session.SessionID,
		OperatorID:     t.Session.OperatorID,
		RegisterNumber: t.Session.RegisterNumber,
		OriginalTotal:  totals.Net,
		DiscountAmount: discount,
		FinalTotal:     t.Cart.FinalTotal(),
	}
	if sd, ok := t.Cart.SaleDiscount(); ok {
		sale.DiscountKind = string(sd.Kind)
		if sd.Kind == cart.DiscountPercent {
			sale.DiscountPercent = sd.Value
		} else {
			sale.DiscountPercent = money.ImpliedPercent(discount, totals.Net)
		}
		reason := sd.Reason
		sale.DiscountReason = &reason
	}
	if t.Customer != nil {
		id := t.Customer.ID
		sale.CustomerID = &id
	}

	for _, ln := range t.Cart.Lines() {
		item := model.SaleItem{
			Sequence:        ln.Sequence,
			Code:            ln.Code,
			Description:     ln.Description,
			Quantity:        ln.Quantity,
			UnitPrice:       ln.UnitPrice,
			GrossTotal:      ln.Gross,
			DiscountAmount:  ln.Discount,
			DiscountKind:    string(ln.DiscountKind),
			DiscountPercent: ln.DiscountPercent,
			Total:           ln.Total,
			Cancellation:    ln.Cancellation,
		}
		if ln.DiscountReason != "" {
			reason := ln.DiscountReason
			item.DiscountReason = &reason
		}
		sale.Items = append(sale.Items, item)
	}

	for _, a := range t.Engine.Applied() {
		st := model.SaleTender{
			Sequence: a.Sequence,
			Code:     string(a.Kind.Code),
			Label:    a.Kind.Label,
			Amount:   a.Amount,
		}
		if a.Cheque != nil {
			ref := a.Cheque.DocumentNumber
			st.ChequeRef = &ref
		}
		if a.Auth != nil {
			txID, code := a.Auth.TransactionID, a.Auth.AuthorizationCode
			st.AuthTransactionID = &txID
			st.AuthCode = &code
		}
		sale.Tenders = append(sale.Tenders, st)
	}
	return sale
}

func (s *saleService) enqueueFiscal(ctx context.Context, t *terminal.Terminal, sale *model.Sale, email *string) {
	if s.dispatcher == nil {
		return
	}
	payload := worker.FiscalJobPayload{SaleID: sale.ID.String()}
	if email != nil && *email != "" {
		payload.CustomerEmail = email
	} else if t.Customer != nil && t.Customer.Email != nil {
		payload.CustomerEmail = t.Customer.Email
	}
	if t.Customer != nil {
		doc := t.Customer.Document
		payload.CustomerDocument = &doc
	}
	if err := s.dispatcher.EnqueueFiscal(ctx, payload); err != nil {
		log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("fiscal job enqueue failed")
	}
}

// terminalCheques feeds the engine's cheque capture from the details the
// operator sent with the apply request.
type terminalCheques struct{ t *terminal.Terminal }

func (c *terminalCheques) Capture(_ context.Context, _ decimal.Decimal) (*tender.ChequeRecord, error) {
	if c.t.PendingCheque == nil {
		return nil, errors.New("cheque details not provided")
	}
	rec := c.t.PendingCheque
	c.t.PendingCheque = nil
	return rec, nil
}

func parseCheque(req *dto.ChequeRequest) (*tender.ChequeRecord, error) {
	if req == nil {
		return nil, apperr.New(apperr.Validation, "cheque details are required for this tender")
	}
	due, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid cheque due date")
	}
	today := time.Now().Truncate(24 * time.Hour)
	if due.Before(today) {
		return nil, apperr.New(apperr.Validation, "cheque due date cannot be in the past")
	}
	return &tender.ChequeRecord{
		Payee:          req.Payee,
		Bank:           req.Bank,
		DocumentNumber: req.DocumentNumber,
		DueDate:        due,
	}, nil
}

// ─── Response builders ───────────────────────────────────────────────────────

func cartToResponse(t *terminal.Terminal) *dto.CartResponse {
	totals := t.Cart.Totals()
	resp := &dto.CartResponse{
		Lines:         make([]dto.CartLineResponse, 0),
		Subtotal:      totals.Subtotal,
		ItemDiscounts: totals.ItemDiscounts,
		Cancellations: totals.Cancellations,
		Net:           totals.Net,
		SaleDiscount:  t.Cart.SaleDiscountAmount(),
		FinalTotal:    t.Cart.FinalTotal(),
	}
	for _, ln := range t.Cart.Lines() {
		resp.Lines = append(resp.Lines, dto.CartLineResponse{
			Sequence:        ln.Sequence,
			Code:            ln.Code,
			Description:     ln.Description,
			Quantity:        ln.Quantity,
			UnitPrice:       ln.UnitPrice,
			Gross:           ln.Gross,
			Discount:        ln.Discount,
			DiscountPercent: ln.DiscountPercent,
			Total:           ln.Total,
			Cancellation:    ln.Cancellation,
		})
	}
	if t.Customer != nil {
		name := t.Customer.Name
		resp.Customer = &name
	}
	return resp
}

func paymentStateResponse(e *tender.Engine) *dto.PaymentStateResponse {
	resp := &dto.PaymentStateResponse{
		SaleTotal:    e.Total(),
		AppliedTotal: e.AppliedTotal(),
		Remaining:    e.Remaining(),
		Settled:      e.IsSettled(),
		Tenders:      make([]dto.AppliedTenderResponse, 0),
	}
	for _, a := range e.Applied() {
		resp.Tenders = append(resp.Tenders, dto.AppliedTenderResponse{
			Sequence: a.Sequence,
			Code:     string(a.Kind.Code),
			Label:    a.Kind.Label,
			Amount:   a.Amount,
		})
	}
	return resp
}

func saleToResponse(sale *model.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:             sale.ID.String(),
		TicketNumber:   sale.TicketNumber,
		OriginalTotal:  sale.OriginalTotal,
		DiscountAmount: sale.DiscountAmount,
		FinalTotal:     sale.FinalTotal,
		Tenders:        make([]dto.AppliedTenderResponse, 0, len(sale.Tenders)),
		CreatedAt:      sale.CreatedAt.Format(time.RFC3339),
	}
	for _, st := range sale.Tenders {
		resp.Tenders = append(resp.Tenders, dto.AppliedTenderResponse{
			Sequence: st.Sequence,
			Code:     st.Code,
			Label:    st.Label,
			Amount:   st.Amount,
		})
	}
	return resp
}
