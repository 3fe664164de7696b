package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

// CashRepository persists sessions and the immutable movement ledger.
// Movements have no Update or Delete on purpose.
type CashRepository interface {
	CreateSessionTx(tx *gorm.DB, s *model.CashSession) error
	// FindOpenSession returns the single open session, regardless of
	// register (the one-open-session policy is global).
	FindOpenSession(ctx context.Context) (*model.CashSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	UpdateSession(ctx context.Context, s *model.CashSession) error
	CreateMovement(ctx context.Context, m *model.CashMovement) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	// SumMovements returns the signed sum (withdrawals negative) over the
	// whole ledger, or scoped to one session when sessionID is non-nil.
	SumMovements(ctx context.Context, sessionID *uuid.UUID) (decimal.Decimal, error)
	DB() *gorm.DB
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) DB() *gorm.DB { return r.db }

func (r *cashRepo) CreateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Create(s).Error
}

func (r *cashRepo) FindOpenSession(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Where("status = 'open'").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Movements").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) UpdateSession(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *cashRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cashRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *cashRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cashRepo) SumMovements(ctx context.Context, sessionID *uuid.UUID) (decimal.Decimal, error) {
	q := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", model.MovementWithdrawal)
	if sessionID != nil {
		q = q.Where("session_id = ?", *sessionID)
	}
	var sum decimal.Decimal
	err := q.Scan(&sum).Error
	return sum, err
}
