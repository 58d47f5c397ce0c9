package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/paymaster/internal/adapter/http/dto"
	"github.com/iho/paymaster/internal/domain"
	"github.com/iho/paymaster/internal/infrastructure/audit"
	"github.com/iho/paymaster/internal/ledger"
)

const defaultEntryLimit = 50

// LedgerHandler serves ledger inspection and export/import requests.
type LedgerHandler struct {
	ledger *ledger.Ledger
	audit  *audit.Emitter
}

// NewLedgerHandler creates a new LedgerHandler. aud may be nil.
func NewLedgerHandler(l *ledger.Ledger, aud *audit.Emitter) *LedgerHandler {
	return &LedgerHandler{ledger: l, audit: aud}
}

// List returns recent entries, newest first.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultEntryLimit)
	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(h.ledger.RecentEntries(limit)))
}

// Get returns a single entry by id.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry id", "")
		return
	}

	entry, err := h.ledger.Entry(id)
	if err != nil {
		writeError(w, mapDomainError(err), "entry not found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Export returns the full ledger document.
func (h *LedgerHandler) Export(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Export())
}

// Import replaces the ledger state with the posted document.
func (h *LedgerHandler) Import(w http.ResponseWriter, r *http.Request) {
	var doc ledger.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.ledger.Import(&doc); err != nil {
		writeError(w, mapDomainError(err), "failed to import ledger", err.Error())
		return
	}

	h.audit.Emit(domain.EventLedgerImported, map[string]any{
		"entries": len(doc.Entries),
		"source":  "api",
	})
	writeJSON(w, http.StatusOK, map[string]int{"entries": len(doc.Entries)})
}
