package domain

import "errors"

var (
	// Amount errors
	ErrInvalidAmount = errors.New("amount must be a non-negative integer in base units")

	// Status errors
	ErrInvalidStatus = errors.New("unknown ledger entry status")

	// Ledger errors
	ErrDuplicateEntry = errors.New("ledger entry already exists")
	ErrEntryNotFound  = errors.New("ledger entry not found")
	ErrEntryTerminal  = errors.New("ledger entry already settled")

	// Gateway errors
	ErrServiceNotFound = errors.New("remote service not found")
)
