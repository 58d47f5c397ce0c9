package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain integer", input: "5000000", want: "5000000"},
		{name: "zero", input: "0", want: "0"},
		{name: "negative integer", input: "-100", wantErr: true},
		{name: "fractional base units", input: "100.5", wantErr: true},
		{name: "not a number", input: "five", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestHumanConversion(t *testing.T) {
	base, err := ParseAmount("2500000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	human := ToHuman(base)
	if human.String() != "2.5" {
		t.Fatalf("ToHuman(2500000) = %s, want 2.5", human)
	}

	back, err := FromHuman(human)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(base) {
		t.Fatalf("round-trip mismatch: got %s, want %s", back, base)
	}
}

func TestFromHumanRejectsSubBaseUnit(t *testing.T) {
	human := decimal.RequireFromString("0.0000001")
	if _, err := FromHuman(human); err == nil {
		t.Fatal("expected error for sub-base-unit amount")
	}
}

func TestFromHumanRejectsNegative(t *testing.T) {
	human := decimal.RequireFromString("-2.5")
	if _, err := FromHuman(human); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestEntryStatusValid(t *testing.T) {
	for _, s := range []EntryStatus{EntryStatusPending, EntryStatusAccepted, EntryStatusRejected, EntryStatusError} {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	if EntryStatus("settledish").Valid() {
		t.Error("unknown status must not be valid")
	}
}
