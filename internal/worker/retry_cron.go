package worker

// retry_cron.go
// Background goroutine that periodically re-attempts sidecar emission for
// fiscal documents stuck in status='pending' with next_retry_at in the past.
// Uses the circuit breaker to avoid hammering a downed sidecar.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zachow1/pdv-medusax8-sub000/internal/infra"
	"github.com/zachow1/pdv-medusax8-sub000/internal/repository"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
	// MaxDocumentRetries is the cap before a document moves to error/DLQ.
	MaxDocumentRetries = 5
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	FiscalRepo  repository.FiscalRepository
	SaleRepo    repository.SaleRepository
	Client      *infra.FiscalClient
	CB          *infra.CircuitBreaker
	RDB         *redis.Client
	IssuerTaxID string
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries due documents and re-attempts emission through the breaker.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	docs, err := cfg.FiscalRepo.ListDueRetries(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query due documents")
		return
	}
	if len(docs) == 0 {
		return
	}

	log.Info().Int("count", len(docs)).Msg("retry_cron: processing due documents")

	for i := range docs {
		doc := &docs[i]

		// The breaker may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		sale, err := cfg.SaleRepo.FindByID(ctx, doc.SaleID)
		if err != nil {
			log.Error().Err(err).Str("document_id", doc.ID.String()).Msg("retry_cron: sale not found")
			continue
		}

		var emitResp *infra.FiscalResponse
		cbErr := cfg.CB.Execute(func() error {
			resp, err := cfg.Client.Emit(ctx, buildFiscalPayload(sale, nil, cfg.IssuerTaxID))
			if err != nil {
				return err
			}
			emitResp = resp
			return nil
		})

		if cbErr != nil {
			doc.RetryCount++
			errMsg := cbErr.Error()
			doc.LastError = &errMsg
			nextRetry := time.Now().Add(retryBackoff(doc.RetryCount))
			doc.NextRetryAt = &nextRetry

			if doc.RetryCount >= MaxDocumentRetries {
				doc.Status = "error"
				doc.NextRetryAt = nil
				log.Error().
					Str("document_id", doc.ID.String()).
					Str("sale_id", doc.SaleID.String()).
					Int("retries", doc.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to error/DLQ")

				payload, _ := json.Marshal(FiscalJobPayload{SaleID: doc.SaleID.String()})
				SendToDLQ(ctx, cfg.RDB, QueueFiscal, "fiscal", payload,
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxDocumentRetries, errMsg),
					doc.RetryCount)
			} else {
				log.Warn().
					Str("document_id", doc.ID.String()).
					Int("retry_count", doc.RetryCount).
					Time("next_retry_at", nextRetry).
					Msg("retry_cron: emission failed, scheduled next attempt")
			}

			_ = cfg.FiscalRepo.Update(ctx, doc)
			continue
		}

		if emitResp != nil && emitResp.Status == "authorized" {
			doc.Status = "issued"
			docID, authCode := emitResp.DocumentID, emitResp.AuthCode
			doc.DocumentID = &docID
			doc.AuthCode = &authCode
			doc.NextRetryAt = nil
			doc.LastError = nil
			_ = cfg.FiscalRepo.Update(ctx, doc)

			log.Info().
				Str("document_id", docID).
				Str("sale_id", doc.SaleID.String()).
				Int("total_retries", doc.RetryCount).
				Msg("retry_cron: document issued after retry")
		} else if emitResp != nil {
			doc.Status = "rejected"
			notes := fmt.Sprintf("sidecar rejected on retry: %s", emitResp.Message)
			doc.Notes = &notes
			doc.NextRetryAt = nil
			_ = cfg.FiscalRepo.Update(ctx, doc)
			log.Warn().
				Str("document_id", doc.ID.String()).
				Msg("retry_cron: sidecar rejected on retry")
		}
	}
}

// retryBackoff doubles per attempt: 1m, 2m, 4m, 8m…
func retryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	return time.Duration(1<<uint(retryCount-1)) * time.Minute
}
