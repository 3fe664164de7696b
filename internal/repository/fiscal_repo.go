package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

type FiscalRepository interface {
	Create(ctx context.Context, d *model.FiscalDocument) error
	Update(ctx context.Context, d *model.FiscalDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FiscalDocument, error)
	FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.FiscalDocument, error)
	// ListDueRetries returns pending documents whose next_retry_at is due.
	ListDueRetries(ctx context.Context, now time.Time, limit int) ([]model.FiscalDocument, error)
}

type fiscalRepo struct{ db *gorm.DB }

func NewFiscalRepository(db *gorm.DB) FiscalRepository { return &fiscalRepo{db: db} }

func (r *fiscalRepo) Create(ctx context.Context, d *model.FiscalDocument) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *fiscalRepo) Update(ctx context.Context, d *model.FiscalDocument) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *fiscalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.FiscalDocument, error) {
	var d model.FiscalDocument
	err := r.db.WithContext(ctx).First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *fiscalRepo) FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.FiscalDocument, error) {
	var d model.FiscalDocument
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *fiscalRepo) ListDueRetries(ctx context.Context, now time.Time, limit int) ([]model.FiscalDocument, error) {
	var docs []model.FiscalDocument
	err := r.db.WithContext(ctx).
		Where("status = 'pending' AND next_retry_at IS NOT NULL AND next_retry_at <= ?", now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}
