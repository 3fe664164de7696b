package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

// ProductRepository is the read-only catalog view the terminal consumes.
// Catalog maintenance belongs to the back office.
type ProductRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Product, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("code = ? AND active", code).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type CustomerRepository interface {
	FindByDocument(ctx context.Context, document string) (*model.Customer, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) FindByDocument(ctx context.Context, document string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Where("document = ? AND active", document).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
