package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iho/paymaster/internal/domain"
)

// HTTPWallet creates payment instruments by calling an external wallet
// service over HTTP.
type HTTPWallet struct {
	baseURL string
	client  *http.Client
}

// NewHTTPWallet creates an HTTPWallet. timeout bounds each request.
func NewHTTPWallet(baseURL string, timeout time.Duration) *HTTPWallet {
	return &HTTPWallet{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type instrumentRequest struct {
	Scheme   string `json:"scheme"`
	Network  string `json:"network"`
	Asset    string `json:"asset"`
	PayTo    string `json:"pay_to"`
	Resource string `json:"resource"`
	Amount   string `json:"amount"`
}

type instrumentResponse struct {
	ID      string `json:"id"`
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
	Payload string `json:"payload"`
}

// CreatePaymentInstrument asks the wallet service to sign a payment
// for the given requirement.
func (w *HTTPWallet) CreatePaymentInstrument(ctx context.Context, req domain.PaymentRequirement) (*domain.PaymentInstrument, error) {
	body, err := json.Marshal(instrumentRequest{
		Scheme:   req.Scheme,
		Network:  req.Network,
		Asset:    req.Asset,
		PayTo:    req.PayTo,
		Resource: req.Resource,
		Amount:   req.Amount.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal instrument request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/instruments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build instrument request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("wallet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("wallet returned status %d: %s", resp.StatusCode, msg)
	}

	var out instrumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode instrument response: %w", err)
	}
	if out.Payload == "" {
		return nil, fmt.Errorf("wallet returned an empty instrument payload")
	}

	return &domain.PaymentInstrument{
		ID:      out.ID,
		Scheme:  out.Scheme,
		Network: out.Network,
		Payload: out.Payload,
	}, nil
}
