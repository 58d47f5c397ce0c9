package treasurer

import (
	"context"

	"github.com/iho/paymaster/internal/domain"
)

// Wallet constructs payment instruments for requirements. The call may
// be slow and must honor context cancellation.
type Wallet interface {
	CreatePaymentInstrument(ctx context.Context, req domain.PaymentRequirement) (*domain.PaymentInstrument, error)
}

// Confirmer approves payments above the auto-approve threshold out of
// band. Without a confirmer such payments are denied, never silently
// approved.
type Confirmer interface {
	Confirm(ctx context.Context, agentID string, req domain.PaymentRequirement) (bool, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
