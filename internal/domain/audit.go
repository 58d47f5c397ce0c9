package domain

// Audit event types. The audit stream is informational only; the ledger
// remains the source of truth for spend accounting.
const (
	EventAuthorizationGranted = "authorization.granted"
	EventAuthorizationDenied  = "authorization.denied"
	EventReservationTaken     = "reservation.taken"
	EventReservationReleased  = "reservation.released"
	EventReservationCommitted = "reservation.committed"
	EventStatusUpdated        = "payment.status_updated"
	EventBreakerTransition    = "breaker.transition"
	EventLedgerImported       = "ledger.imported"
	EventPendingReconciled    = "payment.reconciled"
)
