package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatusValueMapping(t *testing.T) {
	tests := []struct {
		status   StatusValue
		entry    EntryStatus
		terminal bool
	}{
		{StatusAccepted, EntryStatusAccepted, true},
		{StatusRejected, EntryStatusRejected, true},
		{StatusDeclined, EntryStatusRejected, true},
		{StatusError, EntryStatusError, true},
		{StatusSending, EntryStatusPending, false},
		{StatusValue("queued"), EntryStatusPending, false},
		{StatusValue(""), EntryStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.EntryStatus(); got != tt.entry {
				t.Errorf("EntryStatus() = %s, want %s", got, tt.entry)
			}
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestPaymentRequirementValidate(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "positive integer", amount: "1000"},
		{name: "zero", amount: "0", wantErr: true},
		{name: "negative", amount: "-5", wantErr: true},
		{name: "fractional", amount: "10.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &PaymentRequirement{Amount: decimal.RequireFromString(tt.amount)}
			err := req.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
