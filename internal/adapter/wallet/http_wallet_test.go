package wallet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paymaster/internal/domain"
)

func testRequirement() domain.PaymentRequirement {
	return domain.PaymentRequirement{
		Scheme:   "exact",
		Network:  "base",
		Asset:    "usdc",
		PayTo:    "0xf00d",
		Resource: "https://api.example.com/search",
		Amount:   decimal.NewFromInt(500000),
	}
}

func TestCreatePaymentInstrument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/instruments" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req instrumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Amount != "500000" || req.PayTo != "0xf00d" {
			t.Errorf("unexpected request body: %+v", req)
		}

		json.NewEncoder(w).Encode(instrumentResponse{
			ID:      "inst-1",
			Scheme:  "exact",
			Network: "base",
			Payload: "0xsigned",
		})
	}))
	defer srv.Close()

	wallet := NewHTTPWallet(srv.URL, 5*time.Second)
	inst, err := wallet.CreatePaymentInstrument(context.Background(), testRequirement())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.ID != "inst-1" || inst.Payload != "0xsigned" {
		t.Fatalf("unexpected instrument: %+v", inst)
	}
}

func TestCreatePaymentInstrumentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "signer unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wallet := NewHTTPWallet(srv.URL, 5*time.Second)
	if _, err := wallet.CreatePaymentInstrument(context.Background(), testRequirement()); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestCreatePaymentInstrumentEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(instrumentResponse{ID: "inst-1"})
	}))
	defer srv.Close()

	wallet := NewHTTPWallet(srv.URL, 5*time.Second)
	if _, err := wallet.CreatePaymentInstrument(context.Background(), testRequirement()); err == nil {
		t.Fatal("expected error on empty payload")
	}
}

func TestCreatePaymentInstrumentContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and can
		// observe the client disconnect; otherwise the request context is
		// never cancelled and srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	wallet := NewHTTPWallet(srv.URL, 5*time.Second)
	if _, err := wallet.CreatePaymentInstrument(ctx, testRequirement()); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
