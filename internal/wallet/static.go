package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// StaticProvider is a config-backed wallet provider for development and
// simulated deployments: a fixed account list and a mutable chain id. It
// also backs the wallet tests, since it implements the full provider
// contract including change notifications.
type StaticProvider struct {
	mu          sync.Mutex
	accounts    []types.Identity
	chainID     int64
	knownChains map[int64]bool
	balances    map[types.Identity]*big.Int

	accountSubs map[int64]func([]types.Identity)
	chainSubs   map[int64]func(int64)
	nextSubID   int64
}

// NewStaticProvider creates a provider with the given authorized accounts
// pointed at chainID
func NewStaticProvider(accounts []string, chainID int64) *StaticProvider {
	ids := make([]types.Identity, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, types.NormalizeIdentity(a))
	}
	return &StaticProvider{
		accounts:    ids,
		chainID:     chainID,
		knownChains: map[int64]bool{chainID: true},
		balances:    make(map[types.Identity]*big.Int),
		accountSubs: make(map[int64]func([]types.Identity)),
		chainSubs:   make(map[int64]func(int64)),
	}
}

// RequestAccounts returns the configured accounts. There is no user to
// prompt, so request and passive listing behave the same.
func (p *StaticProvider) RequestAccounts(ctx context.Context) ([]types.Identity, error) {
	return p.Accounts(ctx)
}

// Accounts returns the configured accounts
func (p *StaticProvider) Accounts(ctx context.Context) ([]types.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Identity, len(p.accounts))
	copy(out, p.accounts)
	return out, nil
}

// ChainID returns the current chain id
func (p *StaticProvider) ChainID(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

// SwitchChain moves to a known chain, or fails with ErrUnknownChain
func (p *StaticProvider) SwitchChain(ctx context.Context, chainID int64) error {
	p.mu.Lock()
	if !p.knownChains[chainID] {
		p.mu.Unlock()
		return fmt.Errorf("switch to chain %d: %w", chainID, ErrUnknownChain)
	}
	p.chainID = chainID
	p.mu.Unlock()

	p.emitChainChanged(chainID)
	return nil
}

// AddChain registers a network and switches to it
func (p *StaticProvider) AddChain(ctx context.Context, network types.NetworkDescriptor) error {
	p.mu.Lock()
	p.knownChains[network.ChainID] = true
	p.chainID = network.ChainID
	p.mu.Unlock()

	p.emitChainChanged(network.ChainID)
	return nil
}

// Balance returns the configured balance for the account, zero if unset
func (p *StaticProvider) Balance(ctx context.Context, account types.Identity) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bal, ok := p.balances[account]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

// SetBalance configures an account balance for development wiring
func (p *StaticProvider) SetBalance(account types.Identity, bal *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[account] = new(big.Int).Set(bal)
}

// SetAccounts replaces the account list and notifies subscribers
func (p *StaticProvider) SetAccounts(accounts []string) {
	ids := make([]types.Identity, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, types.NormalizeIdentity(a))
	}

	p.mu.Lock()
	p.accounts = ids
	subs := make([]func([]types.Identity), 0, len(p.accountSubs))
	for _, fn := range p.accountSubs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(ids)
	}
}

// OnAccountsChanged registers an account-change callback
func (p *StaticProvider) OnAccountsChanged(fn func(accounts []types.Identity)) Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	p.accountSubs[id] = fn
	return SubscriptionFunc(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.accountSubs, id)
	})
}

// OnChainChanged registers a network-change callback
func (p *StaticProvider) OnChainChanged(fn func(chainID int64)) Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	p.chainSubs[id] = fn
	return SubscriptionFunc(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.chainSubs, id)
	})
}

func (p *StaticProvider) emitChainChanged(chainID int64) {
	p.mu.Lock()
	subs := make([]func(int64), 0, len(p.chainSubs))
	for _, fn := range p.chainSubs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(chainID)
	}
}
