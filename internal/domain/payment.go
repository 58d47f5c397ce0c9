package domain

import (
	"github.com/shopspring/decimal"
)

// PaymentRequirement describes a payment demanded by a remote service
// before it will perform an operation. Amount is in base units.
type PaymentRequirement struct {
	Scheme      string
	Network     string
	Asset       string
	PayTo       string
	Resource    string
	Description string
	Amount      decimal.Decimal
}

// Validate checks that the requirement carries a usable amount.
func (r *PaymentRequirement) Validate() error {
	if !r.Amount.IsInteger() || !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// PaymentInstrument is a signed payment payload constructed by the wallet
// capability, ready to be attached to a retried remote call.
type PaymentInstrument struct {
	ID      string
	Scheme  string
	Network string
	Payload string
}

// Authorization ties a payment instrument to the ledger entry that
// tracks its settlement.
type Authorization struct {
	ID         string
	Instrument *PaymentInstrument
}

// StatusValue is the settlement status vocabulary reported by the
// remote-payment client. Values outside the known set are non-terminal.
type StatusValue string

const (
	StatusAccepted StatusValue = "accepted"
	StatusRejected StatusValue = "rejected"
	StatusDeclined StatusValue = "declined"
	StatusError    StatusValue = "error"
	StatusSending  StatusValue = "sending"
)

// Terminal reports whether the status ends the settlement lifecycle.
func (s StatusValue) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusDeclined, StatusError:
		return true
	}
	return false
}

// EntryStatus maps the remote vocabulary onto ledger entry statuses.
// "sending" and anything unrecognized stay pending.
func (s StatusValue) EntryStatus() EntryStatus {
	switch s {
	case StatusAccepted:
		return EntryStatusAccepted
	case StatusRejected, StatusDeclined:
		return EntryStatusRejected
	case StatusError:
		return EntryStatusError
	default:
		return EntryStatusPending
	}
}
