package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/zachow1/pdv-medusax8-sub000/internal/tender"
)

// TerminalClient talks to the TEF bridge that drives the physical payment
// terminal. The wire protocol lives in the bridge; this client only posts an
// authorization request and reads the decision.
//
// It implements tender.TerminalAuthorizer. The per-call deadline comes from
// ctx — the engine wraps calls in its configured timeout — so the embedded
// http.Client carries no timeout of its own.
type TerminalClient struct {
	bridgeURL  string
	httpClient *http.Client
}

func NewTerminalClient(bridgeURL string) *TerminalClient {
	return &TerminalClient{bridgeURL: bridgeURL, httpClient: &http.Client{}}
}

type terminalAuthRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Kind   string          `json:"kind"`
}

type terminalAuthResponse struct {
	Approved          bool   `json:"approved"`
	Message           string `json:"message"`
	TransactionID     string `json:"transaction_id"`
	AuthorizationCode string `json:"authorization_code"`
}

// Authorize requests approval for amount on the given tender kind. A context
// deadline expiring mid-call surfaces as a timeout error; the caller treats
// it as a failed tender application.
func (c *TerminalClient) Authorize(ctx context.Context, amount decimal.Decimal, kind tender.Code) (*tender.AuthResult, error) {
	body, err := json.Marshal(terminalAuthRequest{Amount: amount, Kind: string(kind)})
	if err != nil {
		return nil, fmt.Errorf("terminal: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeURL+"/authorize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("terminal: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("terminal: authorization timed out: %w", err)
		}
		return nil, fmt.Errorf("terminal: bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("terminal: bridge returned %d", resp.StatusCode)
	}

	var result terminalAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("terminal: decode response: %w", err)
	}
	return &tender.AuthResult{
		Approved:          result.Approved,
		Message:           result.Message,
		TransactionID:     result.TransactionID,
		AuthorizationCode: result.AuthorizationCode,
	}, nil
}

var _ tender.TerminalAuthorizer = (*TerminalClient)(nil)
