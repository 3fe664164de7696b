package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

type SaleRepository interface {
	// Create inserts the sale with its items and tenders inside tx; the
	// caller owns the transaction boundary.
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Sale, error)
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").Preload("Tenders").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	// PostgreSQL sequence keeps ticket numbers atomic across terminals
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('sales_ticket_number_seq')").Scan(&num).Error
	return num, err
}

func (r *saleRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Preload("Tenders").
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}
