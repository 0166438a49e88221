package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// ErrUnknownChain is the distinguished error a provider returns from
// SwitchChain when the target network has never been added to the wallet.
// The network guard recovers from it with a single add-then-verify pass;
// every other switch error is surfaced unchanged.
var ErrUnknownChain = errors.New("chain unknown to wallet")

// Provider is the injected wallet capability. Browser-injected wallets,
// RPC-node wallets, and test fakes all satisfy it; nothing in the core ever
// reaches for ambient global wallet state.
type Provider interface {
	// RequestAccounts prompts the user for account access and returns the
	// authorized accounts. May show UI.
	RequestAccounts(ctx context.Context) ([]types.Identity, error)

	// Accounts returns the already-authorized accounts without prompting.
	Accounts(ctx context.Context) ([]types.Identity, error)

	// ChainID reports the network the wallet is currently pointed at.
	ChainID(ctx context.Context) (int64, error)

	// SwitchChain asks the wallet to move to the given network. Returns
	// ErrUnknownChain if the wallet has never seen it.
	SwitchChain(ctx context.Context, chainID int64) error

	// AddChain registers a network with the wallet. A successful add leaves
	// the wallet switched to that network.
	AddChain(ctx context.Context, network types.NetworkDescriptor) error

	// Balance returns the account balance in the smallest native unit.
	Balance(ctx context.Context, account types.Identity) (*big.Int, error)

	// OnAccountsChanged registers a callback for account-change
	// notifications. The returned subscription must be unsubscribed to stop
	// delivery.
	OnAccountsChanged(fn func(accounts []types.Identity)) Subscription

	// OnChainChanged registers a callback for network-change notifications.
	OnChainChanged(fn func(chainID int64)) Subscription
}

// Subscription is a handle to an event registration.
type Subscription interface {
	Unsubscribe()
}

type subscriptionFunc func()

func (f subscriptionFunc) Unsubscribe() { f() }

// SubscriptionFunc adapts a cancel function into a Subscription.
func SubscriptionFunc(cancel func()) Subscription {
	return subscriptionFunc(cancel)
}
