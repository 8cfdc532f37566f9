package trader

import (
	"context"

	"github.com/tokenherd/engine/internal/types"
)

// Trader defines the interface for the external trade-submission collaborator.
// It abstracts away venue specifics (swap quoting, transaction construction,
// signing, broadcast), allowing different implementations: live HTTP, dry-run,
// or test doubles.
type Trader interface {
	// Dispatch submits one buy or sell for execution. The signing key is
	// resolved by the caller through a KeyProvider and never persisted.
	// A returned error means the submission itself failed; a TradeResult with
	// Success=false means the venue rejected or reverted the trade.
	Dispatch(ctx context.Context, req types.TradeRequest, signingKey string) (types.TradeResult, error)

	// Close cleans up any resources held by the trader.
	Close() error
}
