/*

This file is used to load the static insider-wallet registry.

The registry maps known developer and team wallets to the balances they held
at launch. It is loaded once at startup; a malformed registry is a hard
configuration error, while duplicate or empty entries are dropped with a
warning so one bad line does not blind the exhaustion detector entirely.

*/

package datafetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var registryLogger = logger.GetForComponent("dev_registry")

var ErrRegistryUnreadable = errors.New("dev wallet registry unreadable")

// LoadDevWalletRegistry reads the insider-wallet registry from path.
// An empty registry is valid and yields the neutral exhaustion signal
// downstream.
func LoadDevWalletRegistry(path string) ([]types.DevWallet, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrRegistryUnreadable)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrRegistryUnreadable, err)
	}

	var entries []types.DevWallet
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Join(ErrRegistryUnreadable, err)
	}

	seen := make(map[string]bool, len(entries))
	wallets := make([]types.DevWallet, 0, len(entries))
	for _, entry := range entries {
		if entry.Address == "" || entry.InitialBalance <= 0 {
			registryLogger.Warn().
				Str("address", entry.Address).
				Float64("initialBalance", entry.InitialBalance).
				Msg("Dropping invalid dev registry entry")
			continue
		}
		if seen[entry.Address] {
			registryLogger.Warn().
				Str("address", entry.Address).
				Msg("Dropping duplicate dev registry entry")
			continue
		}
		seen[entry.Address] = true
		wallets = append(wallets, entry)
	}

	registryLogger.Info().
		Str("path", path).
		Int("walletCount", len(wallets)).
		Msg("Dev wallet registry loaded")

	return wallets, nil
}
