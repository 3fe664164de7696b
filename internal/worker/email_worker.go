package worker

// email_worker.go
// Processes receipt email jobs from QueueEmail: mails the receipt PDF to the
// customer over SMTP.

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/zachow1/pdv-medusax8-sub000/internal/infra"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail      string `json:"to_email"`
	TicketNumber int    `json:"ticket_number"`
	PDFPath      string `json:"pdf_path"`
}

type EmailWorker struct {
	mailer *infra.Mailer
}

func NewEmailWorker(mailer *infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends the receipt email with the PDF attached.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return
	}

	if err := w.mailer.SendReceipt(payload.ToEmail, int64(payload.TicketNumber), payload.PDFPath); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: send failed")
		return
	}
	log.Info().Str("to", payload.ToEmail).Int("ticket", payload.TicketNumber).Msg("email_worker: receipt sent")
}
