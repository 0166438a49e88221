package wallet

import (
	"context"
	"errors"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// NetworkGuard asserts that the connected wallet is pointed at the target
// network, correcting it when possible. Repeated wallet prompts confuse
// users, so rejected switches are surfaced rather than retried; the only
// recovery path is the single add-then-verify pass for a network the wallet
// has never seen.
type NetworkGuard struct {
	provider Provider
	target   types.NetworkDescriptor
	logger   *logger.Logger
}

// NewNetworkGuard creates a guard for the given target network
func NewNetworkGuard(provider Provider, target types.NetworkDescriptor, log *logger.Logger) *NetworkGuard {
	return &NetworkGuard{
		provider: provider,
		target:   target,
		logger:   log,
	}
}

// Target returns the chain id the guard enforces
func (g *NetworkGuard) Target() int64 {
	return g.target.ChainID
}

// Ensure checks the wallet's current network and corrects it if necessary.
// Already on target: no-op, no prompt. Otherwise one switch request; if the
// wallet does not know the network, one add request carrying the full
// descriptor, verified with a prompt-free chain id read.
func (g *NetworkGuard) Ensure(ctx context.Context) error {
	current, err := g.provider.ChainID(ctx)
	if err != nil {
		return types.NewNetworkError(types.ErrCodeWalletUnavailable, "failed to read wallet chain id", err)
	}

	if current == g.target.ChainID {
		return nil
	}

	g.logger.WalletEvent("network_switch_requested", "", map[string]interface{}{
		"from_chain_id": current,
		"to_chain_id":   g.target.ChainID,
	})

	err = g.provider.SwitchChain(ctx, g.target.ChainID)
	if err == nil {
		return nil
	}

	if !errors.Is(err, ErrUnknownChain) {
		return types.NewNetworkError(types.ErrCodeNetworkSwitchRejected, "wallet rejected network switch", err)
	}

	// The wallet has never seen the target network. A successful add leaves
	// the wallet already switched; verify instead of prompting again.
	g.logger.WalletEvent("network_add_requested", "", map[string]interface{}{
		"chain_id": g.target.ChainID,
		"name":     g.target.Name,
	})

	if err := g.provider.AddChain(ctx, g.target); err != nil {
		return types.NewNetworkError(types.ErrCodeNetworkSwitchRejected, "wallet rejected network add", err)
	}

	current, err = g.provider.ChainID(ctx)
	if err != nil {
		return types.NewNetworkError(types.ErrCodeWalletUnavailable, "failed to read wallet chain id after add", err)
	}

	if current != g.target.ChainID {
		return types.NewNetworkError(types.ErrCodeNetworkSwitchRejected, "wallet did not switch after network add", nil)
	}

	return nil
}
