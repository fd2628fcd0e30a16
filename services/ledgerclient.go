package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerClient dispatches outbound transfers to the ledger node. Both calls
// are boundary calls that can fail; callers must treat a failure as aborting
// the whole transition.
type LedgerClient interface {
	TransferNative(ctx context.Context, to string, amount decimal.Decimal) error
	TransferToken(ctx context.Context, token, to string, amount decimal.Decimal) error
}

type HTTPLedgerClient struct {
	client   *http.Client
	endpoint string
}

func NewHTTPLedgerClient(endpoint string) *HTTPLedgerClient {
	return &HTTPLedgerClient{
		client:   &http.Client{},
		endpoint: endpoint,
	}
}

// TransferNative sends native currency from custody to an account.
func (s *HTTPLedgerClient) TransferNative(ctx context.Context, to string, amount decimal.Decimal) error {
	payload := map[string]interface{}{
		"method": "transfer",
		"args": map[string]interface{}{
			"to":     to,
			"amount": amount.String(),
		},
	}

	return s.callNode(ctx, payload)
}

// TransferToken moves token units from custody to an account via the token
// contract's transfer-from capability.
func (s *HTTPLedgerClient) TransferToken(ctx context.Context, token, to string, amount decimal.Decimal) error {
	payload := map[string]interface{}{
		"method": "transfer_from_custody",
		"args": map[string]interface{}{
			"token":  token,
			"to":     to,
			"amount": amount.String(),
		},
	}

	return s.callNode(ctx, payload)
}

func (s *HTTPLedgerClient) callNode(ctx context.Context, payload map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/transactions", s.endpoint)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger call failed with status: %d", resp.StatusCode)
	}

	return nil
}
