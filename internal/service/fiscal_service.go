package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zachow1/pdv-medusax8-sub000/internal/apperr"
	"github.com/zachow1/pdv-medusax8-sub000/internal/dto"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
)

// FiscalService exposes the status of asynchronous fiscal emissions and lets
// an operator force a stuck document back into the retry queue.
type FiscalService interface {
	StatusBySale(ctx context.Context, saleID uuid.UUID) (*dto.FiscalDocumentResponse, error)
	Retry(ctx context.Context, documentID uuid.UUID) (*dto.FiscalDocumentResponse, error)
}

type fiscalService struct {
	repo repository.FiscalRepository
}

func NewFiscalService(repo repository.FiscalRepository) FiscalService {
	return &fiscalService{repo: repo}
}

func (s *fiscalService) StatusBySale(ctx context.Context, saleID uuid.UUID) (*dto.FiscalDocumentResponse, error) {
	doc, err := s.repo.FindBySaleID(ctx, saleID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "no fiscal document for that sale")
	}
	return fiscalToResponse(doc), nil
}

// Retry reschedules a pending or errored document for immediate pickup by
// the retry cron. Issued documents are final.
func (s *fiscalService) Retry(ctx context.Context, documentID uuid.UUID) (*dto.FiscalDocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "fiscal document not found")
	}
	if doc.Status == "issued" {
		return nil, apperr.New(apperr.Validation, "document is already issued")
	}

	now := time.Now()
	doc.Status = "pending"
	doc.NextRetryAt = &now
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not reschedule document", err)
	}
	return fiscalToResponse(doc), nil
}

func fiscalToResponse(doc *model.FiscalDocument) *dto.FiscalDocumentResponse {
	return &dto.FiscalDocumentResponse{
		ID:         doc.ID.String(),
		SaleID:     doc.SaleID.String(),
		Status:     doc.Status,
		Total:      doc.Total,
		DocumentID: doc.DocumentID,
		AuthCode:   doc.AuthCode,
		RetryCount: doc.RetryCount,
		LastError:  doc.LastError,
		CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
	}
}
