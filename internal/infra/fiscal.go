package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// FiscalItem is one sale line in the emission payload. Cancellation lines are
// sent as-is (negative quantity); the sidecar folds them into the document.
type FiscalItem struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// FiscalTender mirrors one applied payment for the fiscal document.
type FiscalTender struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// FiscalPayload is posted to the sidecar, which owns XML generation, signing
// and transmission.
type FiscalPayload struct {
	SaleID           string          `json:"sale_id"`
	IssuerTaxID      string          `json:"issuer_tax_id"`
	CustomerDocument *string         `json:"customer_document,omitempty"`
	Items            []FiscalItem    `json:"items"`
	Tenders          []FiscalTender  `json:"tenders"`
	Total            decimal.Decimal `json:"total"`
}

// FiscalResponse is the sidecar's answer.
// Status: "authorized" | "rejected"
type FiscalResponse struct {
	DocumentID string `json:"document_id"`
	AuthCode   string `json:"auth_code"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// FiscalClient delegates fiscal document emission to the sidecar over HTTP,
// keeping certificate handling and wire formats out of this process.
type FiscalClient struct {
	sidecarURL string
	httpClient *http.Client
}

func NewFiscalClient(sidecarURL string) *FiscalClient {
	return &FiscalClient{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Emit posts the payload to the sidecar and returns its decision.
func (c *FiscalClient) Emit(ctx context.Context, payload FiscalPayload) (*FiscalResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fiscal: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+"/emit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fiscal: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fiscal: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fiscal: sidecar returned %d", resp.StatusCode)
	}

	var result FiscalResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("fiscal: decode response: %w", err)
	}
	return &result, nil
}
