package ledger

import (
	"time"

	"github.com/iho/paymaster/internal/domain"
)

// Document is the serialized form of the ledger, round-trippable via
// Export/Import. Amounts are integer base-unit strings.
type Document struct {
	Entries       []EntryRecord     `json:"entries"`
	DailySpending map[string]string `json:"daily_spending"`
}

// EntryRecord is the wire form of a single ledger entry.
type EntryRecord struct {
	ID           string     `json:"id"`
	AgentID      string     `json:"agent_id"`
	ToolName     string     `json:"tool_name"`
	Amount       string     `json:"amount"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	PayTo        string     `json:"pay_to,omitempty"`
	Network      string     `json:"network,omitempty"`
	Asset        string     `json:"asset,omitempty"`
	InstrumentID string     `json:"instrument_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
}

func recordFromEntry(e *domain.LedgerEntry) EntryRecord {
	rec := EntryRecord{
		ID:           e.ID,
		AgentID:      e.AgentID,
		ToolName:     e.ToolName,
		Amount:       e.Amount.String(),
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		InstrumentID: e.InstrumentID,
		CreatedAt:    e.CreatedAt,
		SettledAt:    e.SettledAt,
	}
	if e.Requirement != nil {
		rec.PayTo = e.Requirement.PayTo
		rec.Network = e.Requirement.Network
		rec.Asset = e.Requirement.Asset
	}
	return rec
}

func (r *EntryRecord) toEntry() (*domain.LedgerEntry, error) {
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return nil, err
	}
	if !domain.EntryStatus(r.Status).Valid() {
		return nil, domain.ErrInvalidStatus
	}

	entry := &domain.LedgerEntry{
		ID:           r.ID,
		AgentID:      r.AgentID,
		ToolName:     r.ToolName,
		Amount:       amount,
		Status:       domain.EntryStatus(r.Status),
		ErrorMessage: r.ErrorMessage,
		InstrumentID: r.InstrumentID,
		CreatedAt:    r.CreatedAt,
		SettledAt:    r.SettledAt,
	}
	if r.PayTo != "" || r.Network != "" || r.Asset != "" {
		entry.Requirement = &domain.PaymentRequirement{
			PayTo:   r.PayTo,
			Network: r.Network,
			Asset:   r.Asset,
			Amount:  amount,
		}
	}
	return entry, nil
}
