package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paymaster/internal/domain"
)

const dayFormat = "2006-01-02"

// Ledger is the in-memory source of truth for payment attempts and
// per-day accepted spend. Entries are appended and updated, never
// deleted. All methods are safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry
	order   []string
	daily   map[string]decimal.Decimal
	now     func() time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		entries: make(map[string]*domain.LedgerEntry),
		daily:   make(map[string]decimal.Decimal),
		now:     time.Now,
	}
}

// RecordAuthorization appends a pending entry for a freshly authorized
// payment. It fails only if the id is already taken.
func (l *Ledger) RecordAuthorization(id, agentID, toolName string, req domain.PaymentRequirement, inst *domain.PaymentInstrument) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[id]; ok {
		return domain.ErrDuplicateEntry
	}

	entry := &domain.LedgerEntry{
		ID:          id,
		AgentID:     agentID,
		ToolName:    toolName,
		Amount:      req.Amount,
		Status:      domain.EntryStatusPending,
		Requirement: &req,
		CreatedAt:   l.now().UTC(),
	}
	if inst != nil {
		entry.InstrumentID = inst.ID
	}

	l.entries[id] = entry
	l.order = append(l.order, id)
	return nil
}

// UpdateStatus transitions an entry. Terminal entries are never
// reopened: a second transition returns ErrEntryTerminal and changes
// nothing. A transition to accepted credits the daily bucket for the
// day of the transition, not the day the entry was created.
func (l *Ledger) UpdateStatus(id string, status domain.EntryStatus, errText string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	if entry.Status.Terminal() {
		return domain.ErrEntryTerminal
	}
	if !status.Terminal() {
		// pending -> pending carries no state change
		return nil
	}

	now := l.now().UTC()
	entry.Status = status
	entry.SettledAt = &now
	if errText != "" {
		entry.ErrorMessage = errText
	}

	if status == domain.EntryStatusAccepted {
		day := now.Format(dayFormat)
		l.daily[day] = l.daily[day].Add(entry.Amount)
	}
	return nil
}

// Entry returns a copy of the entry with the given id.
func (l *Ledger) Entry(id string) (domain.LedgerEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[id]
	if !ok {
		return domain.LedgerEntry{}, domain.ErrEntryNotFound
	}
	return *entry, nil
}

// TotalSpent sums all accepted entries.
func (l *Ledger) TotalSpent() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, e := range l.entries {
		if e.Status == domain.EntryStatusAccepted {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// SpentByAgent sums accepted entries for one agent.
func (l *Ledger) SpentByAgent(agentID string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for _, e := range l.entries {
		if e.AgentID == agentID && e.Status == domain.EntryStatusAccepted {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// AgentTotals returns accepted spend per agent.
func (l *Ledger) AgentTotals() map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for _, e := range l.entries {
		if e.Status == domain.EntryStatusAccepted {
			totals[e.AgentID] = totals[e.AgentID].Add(e.Amount)
		}
	}
	return totals
}

// TodaySpending returns the accepted amount credited to the current
// UTC calendar day.
func (l *Ledger) TodaySpending() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.daily[l.now().UTC().Format(dayFormat)]
}

// RecentEntries returns up to limit entries, newest first.
func (l *Ledger) RecentEntries(limit int) []domain.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.order) {
		limit = len(l.order)
	}

	result := make([]domain.LedgerEntry, 0, limit)
	for i := len(l.order) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, *l.entries[l.order[i]])
	}
	return result
}

// PendingOlderThan returns pending entries created before now-age.
// Used by the restart-time reconciler to find stuck reservations.
func (l *Ledger) PendingOlderThan(age time.Duration) []domain.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cutoff := l.now().UTC().Add(-age)
	var stale []domain.LedgerEntry
	for _, id := range l.order {
		e := l.entries[id]
		if e.Status == domain.EntryStatusPending && e.CreatedAt.Before(cutoff) {
			stale = append(stale, *e)
		}
	}
	return stale
}

// Export produces a document holding the full ledger state.
func (l *Ledger) Export() *Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	doc := &Document{
		Entries:       make([]EntryRecord, 0, len(l.order)),
		DailySpending: make(map[string]string, len(l.daily)),
	}
	for _, id := range l.order {
		doc.Entries = append(doc.Entries, recordFromEntry(l.entries[id]))
	}
	for day, amount := range l.daily {
		doc.DailySpending[day] = amount.String()
	}
	return doc
}

// Import fully replaces the in-memory state with the document contents.
func (l *Ledger) Import(doc *Document) error {
	entries := make(map[string]*domain.LedgerEntry, len(doc.Entries))
	order := make([]string, 0, len(doc.Entries))
	for i := range doc.Entries {
		entry, err := doc.Entries[i].toEntry()
		if err != nil {
			return err
		}
		if _, ok := entries[entry.ID]; ok {
			return domain.ErrDuplicateEntry
		}
		entries[entry.ID] = entry
		order = append(order, entry.ID)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return entries[order[i]].CreatedAt.Before(entries[order[j]].CreatedAt)
	})

	daily := make(map[string]decimal.Decimal, len(doc.DailySpending))
	for day, raw := range doc.DailySpending {
		amount, err := domain.ParseAmount(raw)
		if err != nil {
			return err
		}
		daily[day] = amount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.order = order
	l.daily = daily
	return nil
}
