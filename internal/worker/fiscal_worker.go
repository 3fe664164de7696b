package worker

// fiscal_worker.go
// Processes fiscal emission jobs from QueueFiscal: posts the finalized sale
// to the fiscal sidecar, stores the outcome, generates the receipt PDF and
// optionally enqueues the receipt email.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zachow1/pdv-medusax8-sub000/internal/infra"
	"github.com/zachow1/pdv-medusax8-sub000/internal/model"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
)

// FiscalJobPayload is the job envelope sent to QueueFiscal.
type FiscalJobPayload struct {
	SaleID           string  `json:"sale_id"`
	CustomerEmail    *string `json:"customer_email,omitempty"`
	CustomerDocument *string `json:"customer_document,omitempty"`
}

type FiscalWorker struct {
	client      *infra.FiscalClient
	fiscalRepo  repository.FiscalRepository
	saleRepo    repository.SaleRepository
	dispatcher  *Dispatcher
	storagePath string
	issuerTaxID string
}

func NewFiscalWorker(
	client *infra.FiscalClient,
	fiscalRepo repository.FiscalRepository,
	saleRepo repository.SaleRepository,
	dispatcher *Dispatcher,
	storagePath string,
	issuerTaxID string,
) *FiscalWorker {
	return &FiscalWorker{
		client:      client,
		fiscalRepo:  fiscalRepo,
		saleRepo:    saleRepo,
		dispatcher:  dispatcher,
		storagePath: storagePath,
		issuerTaxID: issuerTaxID,
	}
}

// Process handles a single fiscal job:
//  1. Fetch the sale (items + tenders)
//  2. Create the FiscalDocument row with status "pending"
//  3. Call the sidecar with exponential backoff (3 attempts)
//  4. Store the outcome; failures stay pending for the retry cron
//  5. Generate the receipt PDF
//  6. Enqueue the receipt email when an address was provided
func (w *FiscalWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload FiscalJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("fiscal_worker: invalid payload")
		return
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("fiscal_worker: invalid sale_id")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("fiscal_worker: sale not found")
		return
	}

	doc := &model.FiscalDocument{
		SaleID: saleID,
		Total:  sale.FinalTotal,
		Status: "pending",
	}
	if err := w.fiscalRepo.Create(ctx, doc); err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("fiscal_worker: failed to create document")
		return
	}

	var emitResp *infra.FiscalResponse
	emitErr := withRetry(ctx, 3, func(attempt int) error {
		resp, err := w.client.Emit(ctx, buildFiscalPayload(sale, payload.CustomerDocument, w.issuerTaxID))
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("sale_id", payload.SaleID).
				Msg("fiscal_worker: sidecar attempt failed, retrying")
			return err
		}
		emitResp = resp
		return nil
	})

	switch {
	case emitErr != nil:
		// Stays pending; the retry cron picks it up via next_retry_at.
		errMsg := fmt.Sprintf("sidecar error after 3 attempts: %v", emitErr)
		nextRetry := time.Now().Add(time.Minute)
		doc.RetryCount++
		doc.LastError = &errMsg
		doc.NextRetryAt = &nextRetry
		_ = w.fiscalRepo.Update(ctx, doc)
		log.Error().Err(emitErr).Str("sale_id", payload.SaleID).Msg("fiscal_worker: sidecar failed, scheduled for retry")
	case emitResp.Status == "authorized":
		doc.Status = "issued"
		docID, authCode := emitResp.DocumentID, emitResp.AuthCode
		doc.DocumentID = &docID
		doc.AuthCode = &authCode
		_ = w.fiscalRepo.Update(ctx, doc)
		log.Info().Str("document_id", docID).Str("sale_id", payload.SaleID).Msg("fiscal_worker: document issued")
	default:
		doc.Status = "rejected"
		notes := fmt.Sprintf("sidecar rejected the document: %s", emitResp.Message)
		doc.Notes = &notes
		_ = w.fiscalRepo.Update(ctx, doc)
		log.Warn().Str("status", emitResp.Status).Str("sale_id", payload.SaleID).Msg("fiscal_worker: document rejected")
	}

	pdfPath, pdfErr := infra.GenerateReceiptPDF(sale, w.storagePath)
	if pdfErr != nil {
		log.Warn().Err(pdfErr).Str("sale_id", payload.SaleID).Msg("fiscal_worker: PDF generation failed")
	} else {
		doc.PDFPath = &pdfPath
		_ = w.fiscalRepo.Update(ctx, doc)
	}

	if payload.CustomerEmail != nil && *payload.CustomerEmail != "" && pdfPath != "" {
		emailJob := EmailJobPayload{
			ToEmail:      *payload.CustomerEmail,
			TicketNumber: sale.TicketNumber,
			PDFPath:      pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.CustomerEmail).Msg("fiscal_worker: failed to enqueue email")
		}
	}
}

func buildFiscalPayload(sale *model.Sale, customerDocument *string, issuerTaxID string) infra.FiscalPayload {
	payload := infra.FiscalPayload{
		SaleID:           sale.ID.String(),
		IssuerTaxID:      issuerTaxID,
		CustomerDocument: customerDocument,
		Total:            sale.FinalTotal,
	}
	for _, item := range sale.Items {
		payload.Items = append(payload.Items, infra.FiscalItem{
			Code:        item.Code,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}
	for _, t := range sale.Tenders {
		payload.Tenders = append(payload.Tenders, infra.FiscalTender{
			Code:   t.Code,
			Amount: t.Amount,
		})
	}
	return payload
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
