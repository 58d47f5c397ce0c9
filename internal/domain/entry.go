package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the settlement status of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "pending"
	EntryStatusAccepted EntryStatus = "accepted"
	EntryStatusRejected EntryStatus = "rejected"
	EntryStatusError    EntryStatus = "error"
)

// Valid reports whether the status is part of the settlement vocabulary.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusPending, EntryStatusAccepted, EntryStatusRejected, EntryStatusError:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is permitted.
func (s EntryStatus) Terminal() bool {
	switch s {
	case EntryStatusAccepted, EntryStatusRejected, EntryStatusError:
		return true
	}
	return false
}

// LedgerEntry records a single payment attempt. Entries are append-only:
// once written they are never deleted, only updated to a terminal status.
type LedgerEntry struct {
	ID           string
	AgentID      string
	ToolName     string
	Amount       decimal.Decimal
	Status       EntryStatus
	ErrorMessage string
	Requirement  *PaymentRequirement
	InstrumentID string
	CreatedAt    time.Time
	SettledAt    *time.Time
}
