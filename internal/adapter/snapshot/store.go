package snapshot

import (
	"context"
	"errors"

	"github.com/iho/paymaster/internal/ledger"
)

// ErrNoSnapshot is returned by Load when no snapshot has been written
// yet. A fresh deployment starts from an empty ledger.
var ErrNoSnapshot = errors.New("no snapshot found")

// Store persists and restores the exported ledger document.
type Store interface {
	Save(ctx context.Context, doc *ledger.Document) error
	Load(ctx context.Context) (*ledger.Document, error)
}
