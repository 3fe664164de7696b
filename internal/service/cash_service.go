package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/config"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
	"github.com/zachow1/pdv-medusax8-sub000/internal/terminal"
)

type CashService interface {
	Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error)
	PostMovement(ctx context.Context, operatorID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error)
	Close(ctx context.Context, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionReportResponse, error)
	Balance(ctx context.Context) (*dto.BalanceResponse, error)
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	// FindOpen is used by SaleService to bind terminals to the open session.
	FindOpen(ctx context.Context) (*model.CashSession, error)
}

type cashService struct {
	repo     repository.CashRepository
	registry *terminal.Registry
	cfg      *config.Config
}

func NewCashService(repo repository.CashRepository, registry *terminal.Registry, cfg *config.Config) CashService {
	return &cashService{repo: repo, registry: registry, cfg: cfg}
}

// Open starts a session and records the OPEN movement in one transaction.
// At most one session may be open, across all registers; a partial unique
// index on status backs this check up at the database level.
func (s *cashService) Open(ctx context.Context, operatorID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error) {
	if req.OpeningAmount.IsNegative() {
		return nil, apperr.New(apperr.Validation, "opening amount cannot be negative")
	}
	if existing, err := s.repo.FindOpenSession(ctx); err == nil && existing != nil {
		return nil, apperr.Newf(apperr.SessionConflict,
			"a session is already open on register %d", existing.RegisterNumber)
	}

	session := &model.CashSession{
		RegisterNumber: req.RegisterNumber,
		OperatorID:     operatorID,
		OpeningAmount:  req.OpeningAmount,
		Status:         "open",
		OpenedAt:       time.Now(),
	}
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateSessionTx(tx, session); err != nil {
			return err
		}
		mov := &model.CashMovement{
			SessionID:  session.ID,
			Type:       model.MovementOpen,
			Amount:     req.OpeningAmount,
			Reason:     "session open",
			OperatorID: operatorID,
		}
		return s.repo.CreateMovementTx(tx, mov)
	})
	if txErr != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not open session", txErr)
	}

	return s.buildReport(ctx, session)
}

// PostMovement appends a manual movement to the open session's ledger.
// Movements are immutable; OPEN and SALE types are engine-generated and not
// accepted here (the DTO restricts the type field).
func (s *cashService) PostMovement(ctx context.Context, operatorID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, apperr.New(apperr.Validation, "movement amount must be greater than zero")
	}

	session, err := s.repo.FindOpenSession(ctx)
	if err != nil || session == nil {
		return nil, apperr.New(apperr.SessionConflict, "no open cash session")
	}

	var refID *uuid.UUID
	if req.ReferenceID != nil {
		id, err := uuid.Parse(*req.ReferenceID)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid reference_id")
		}
		refID = &id
	}

	mov := &model.CashMovement{
		SessionID:    session.ID,
		Type:         req.Type,
		Amount:       req.Amount,
		Reason:       req.Reason,
		OperatorID:   operatorID,
		Counterparty: req.Counterparty,
		ReferenceID:  refID,
	}
	if err := s.repo.CreateMovement(ctx, mov); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not record movement", err)
	}

	return &dto.MovementResponse{
		ID:           mov.ID.String(),
		Type:         mov.Type,
		Amount:       mov.Amount,
		Reason:       mov.Reason,
		Counterparty: mov.Counterparty,
		CreatedAt:    mov.CreatedAt.Format(time.RFC3339),
	}, nil
}

// Close runs the blind count: the declared amount arrives first, the
// expected amount is computed only afterwards, and the deviation snapshot is
// persisted on the session. A critical deviation requires notes. Closing is
// refused while any terminal has a sale in progress.
func (s *cashService) Close(ctx context.Context, operatorID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil || session == nil {
		return nil, apperr.New(apperr.SessionConflict, "no open cash session")
	}
	if req.DeclaredAmount.IsNegative() {
		return nil, apperr.New(apperr.Validation, "declared amount cannot be negative")
	}
	if s.registry != nil {
		if reg, busy := s.registry.ActiveSale(); busy {
			return nil, apperr.Newf(apperr.SessionConflict,
				"register %d has a sale in progress", reg)
		}
	}

	expected, err := s.repo.SumMovements(ctx, &session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not compute expected amount", err)
	}

	deviation := req.DeclaredAmount.Sub(expected)
	var deviationPct decimal.Decimal
	if !expected.IsZero() {
		deviationPct = deviation.Div(expected).Mul(decimal.NewFromInt(100)).Round(2)
	}
	class := classifyDeviation(deviationPct)

	if class == "critical" && (req.Notes == nil || *req.Notes == "") {
		return nil, apperr.New(apperr.Policy, "critical deviation requires supervisor notes")
	}

	now := time.Now()
	declared := req.DeclaredAmount
	session.Status = "closed"
	session.ExpectedAmount = &expected
	session.DeclaredAmount = &declared
	session.Deviation = &deviation
	session.DeviationPct = &deviationPct
	session.DeviationClass = &class
	session.Notes = req.Notes
	session.ClosedAt = &now

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not close session", err)
	}

	if s.registry != nil {
		s.registry.Reset()
	}

	return s.buildReport(ctx, session)
}

// Balance recomputes the running balance from the movement ledger. The scope
// is configurable: lifetime sums every movement ever recorded, session sums
// only the open session's.
func (s *cashService) Balance(ctx context.Context) (*dto.BalanceResponse, error) {
	scope := s.cfg.BalanceScope
	var sessionID *uuid.UUID
	if scope == config.BalanceScopeSession {
		session, err := s.repo.FindOpenSession(ctx)
		if err != nil || session == nil {
			return nil, apperr.New(apperr.SessionConflict, "no open cash session")
		}
		sessionID = &session.ID
	} else {
		scope = config.BalanceScopeLifetime
	}

	sum, err := s.repo.SumMovements(ctx, sessionID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not compute balance", err)
	}
	return &dto.BalanceResponse{Balance: sum, Scope: scope}, nil
}

func (s *cashService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "cash session not found")
	}
	return s.buildReport(ctx, session)
}

func (s *cashService) FindOpen(ctx context.Context) (*model.CashSession, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil || session == nil {
		return nil, apperr.New(apperr.SessionConflict, "no open cash session")
	}
	return session, nil
}

// classifyDeviation returns "normal" | "warning" | "critical".
// normal: |pct| <= 1, warning: <= 5, critical: > 5.
func classifyDeviation(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return "normal"
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return "warning"
	default:
		return "critical"
	}
}

func (s *cashService) buildReport(ctx context.Context, session *model.CashSession) (*dto.SessionReportResponse, error) {
	var expected decimal.Decimal
	if session.ExpectedAmount != nil {
		expected = *session.ExpectedAmount
	} else {
		sum, err := s.repo.SumMovements(ctx, &session.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "could not compute expected amount", err)
		}
		expected = sum
	}

	report := &dto.SessionReportResponse{
		SessionID:      session.ID.String(),
		RegisterNumber: session.RegisterNumber,
		Status:         session.Status,
		OpeningAmount:  session.OpeningAmount,
		ExpectedAmount: expected,
		DeclaredAmount: session.DeclaredAmount,
		Notes:          session.Notes,
		OpenedAt:       session.OpenedAt.Format(time.RFC3339),
	}
	if session.Deviation != nil && session.DeviationPct != nil && session.DeviationClass != nil {
		report.Deviation = &dto.DeviationResponse{
			Amount:  *session.Deviation,
			Percent: *session.DeviationPct,
			Class:   *session.DeviationClass,
		}
	}
	if session.ClosedAt != nil {
		t := session.ClosedAt.Format(time.RFC3339)
		report.ClosedAt = &t
	}
	return report, nil
}
