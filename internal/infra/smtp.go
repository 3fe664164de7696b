package infra

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
)

// Mailer sends receipt emails over plain SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{host: host, port: port, username: username, password: password, from: from}
}

// SendReceipt sends the receipt to the customer with the PDF attached.
// pdfPath may be empty when generation failed; the email is still sent.
func (m *Mailer) SendReceipt(to string, ticketNumber int64, pdfPath string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Your receipt #%d", ticketNumber)
	e.Text = []byte(fmt.Sprintf(
		"Thank you for your purchase.\n\nReceipt number: %d\nDate: %s\n",
		ticketNumber, time.Now().Format("02/01/2006 15:04"),
	))

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach receipt: %w", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
