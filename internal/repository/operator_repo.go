package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
)

type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Operator, error)
	Create(ctx context.Context, o *model.Operator) error
}

type operatorRepo struct{ db *gorm.DB }

func NewOperatorRepository(db *gorm.DB) OperatorRepository { return &operatorRepo{db: db} }

func (r *operatorRepo) FindByUsername(ctx context.Context, username string) (*model.Operator, error) {
	var o model.Operator
	err := r.db.WithContext(ctx).Where("username = ? AND active", username).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *operatorRepo) Create(ctx context.Context, o *model.Operator) error {
	return r.db.WithContext(ctx).Create(o).Error
}
