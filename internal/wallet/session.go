package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// Session owns the wallet connect/disconnect lifecycle and the current
// identity. One logical session exists per process; concurrent Connect
// calls coalesce into the in-flight attempt so the user never sees a
// duplicate wallet prompt.
type Session struct {
	provider Provider
	guard    *NetworkGuard
	logger   *logger.Logger

	mu               sync.Mutex
	state            types.SessionState
	identity         types.Identity
	networkConfirmed bool
	lastChainID      int64
	pending          *connectAttempt

	accountSubs map[int64]func(types.Identity)
	chainSubs   map[int64]func(int64)
	nextSubID   int64

	providerSubs []Subscription
}

// connectAttempt carries the result of an in-flight connect so late
// arrivals can wait on it instead of prompting again.
type connectAttempt struct {
	done     chan struct{}
	identity types.Identity
	err      error
}

// NewSession creates a session over the injected provider. The provider may
// be nil (no wallet installed); Connect then fails WALLET_UNAVAILABLE while
// Account degrades to empty.
func NewSession(provider Provider, guard *NetworkGuard, log *logger.Logger) *Session {
	s := &Session{
		provider:    provider,
		guard:       guard,
		logger:      log,
		state:       types.SessionDisconnected,
		accountSubs: make(map[int64]func(types.Identity)),
		chainSubs:   make(map[int64]func(int64)),
	}

	if provider != nil {
		// Process-lifetime provider subscriptions; re-emitted as typed
		// session events.
		s.providerSubs = append(s.providerSubs,
			provider.OnAccountsChanged(s.handleAccountsChanged),
			provider.OnChainChanged(s.handleChainChanged),
		)
	}

	return s
}

// Connect establishes the wallet session: request account access, record
// the primary identity, and assert the target network. The network
// assertion, including any switch or add the wallet needs, completes before
// Connect returns. Connecting while already connected returns the current
// identity without prompting.
func (s *Session) Connect(ctx context.Context) (types.Identity, error) {
	s.mu.Lock()

	if s.state == types.SessionConnected {
		id := s.identity
		s.mu.Unlock()
		return id, nil
	}

	if s.state == types.SessionConnecting {
		attempt := s.pending
		s.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.identity, attempt.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if s.provider == nil {
		s.mu.Unlock()
		return "", types.NewSessionError(types.ErrCodeWalletUnavailable, "no wallet provider is available")
	}

	attempt := &connectAttempt{done: make(chan struct{})}
	s.pending = attempt
	s.state = types.SessionConnecting
	s.mu.Unlock()

	identity, err := s.establish(ctx)

	s.mu.Lock()
	if err != nil {
		s.state = types.SessionDisconnected
		s.identity = ""
		s.networkConfirmed = false
	} else {
		s.state = types.SessionConnected
		s.identity = identity
		s.networkConfirmed = true
	}
	s.pending = nil
	s.mu.Unlock()

	attempt.identity = identity
	attempt.err = err
	close(attempt.done)

	return identity, err
}

// establish performs the provider round-trips for one connect attempt.
func (s *Session) establish(ctx context.Context) (types.Identity, error) {
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return "", types.NewSessionError(types.ErrCodeWalletUnavailable,
			fmt.Sprintf("wallet account request failed: %v", err))
	}

	if len(accounts) == 0 {
		return "", types.NewSessionError(types.ErrCodeNoAccounts, "wallet returned no accounts")
	}

	identity := accounts[0]

	if err := s.guard.Ensure(ctx); err != nil {
		return "", err
	}

	s.logger.WalletEvent("connected", string(identity), map[string]interface{}{
		"chain_id": s.guard.Target(),
	})

	return identity, nil
}

// Account is the non-throwing status check: the current identity from the
// provider's passive account list, or empty when there is no provider or no
// authorized account. It never prompts.
func (s *Session) Account(ctx context.Context) types.Identity {
	if s.provider == nil {
		return ""
	}

	accounts, err := s.provider.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		return ""
	}

	return accounts[0]
}

// Disconnect clears local session state. Idempotent; the provider keeps its
// own authorization, so no wallet round-trip happens here.
func (s *Session) Disconnect() {
	s.mu.Lock()
	wasConnected := s.state == types.SessionConnected
	identity := s.identity
	s.state = types.SessionDisconnected
	s.identity = ""
	s.networkConfirmed = false
	s.mu.Unlock()

	if wasConnected {
		s.logger.WalletEvent("disconnected", string(identity), nil)
	}
}

// RequireConnected returns the current identity, or NOT_CONNECTED unless
// the session is connected with a confirmed network. Registry operations
// call this first and use the returned identity for their whole lifetime,
// so an account change mid-flight never swaps the actor.
func (s *Session) RequireConnected() (types.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != types.SessionConnected || !s.networkConfirmed || s.identity.IsZero() {
		return "", types.NewSessionError(types.ErrCodeNotConnected, "wallet session is not connected")
	}

	return s.identity, nil
}

// Status returns a point-in-time snapshot of the session
func (s *Session) Status() types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return types.SessionStatus{
		State:            s.state,
		Identity:         s.identity,
		NetworkConfirmed: s.networkConfirmed,
		ChainID:          s.lastChainID,
	}
}

// Balance returns the current identity's balance in the smallest native
// unit
func (s *Session) Balance(ctx context.Context) (*big.Int, error) {
	identity, err := s.RequireConnected()
	if err != nil {
		return nil, err
	}

	return s.provider.Balance(ctx, identity)
}

// OnAccountChanged registers a callback for identity changes. Unsubscribe
// the returned handle when done; subscriptions otherwise live for the
// process, not the connect cycle.
func (s *Session) OnAccountChanged(fn func(identity types.Identity)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.accountSubs[id] = fn
	return SubscriptionFunc(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.accountSubs, id)
	})
}

// OnChainChanged registers a callback for network changes
func (s *Session) OnChainChanged(fn func(chainID int64)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.chainSubs[id] = fn
	return SubscriptionFunc(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.chainSubs, id)
	})
}

// Close unsubscribes the session from provider notifications
func (s *Session) Close() {
	for _, sub := range s.providerSubs {
		sub.Unsubscribe()
	}
	s.providerSubs = nil
}

// handleAccountsChanged processes a provider account-change notification.
// An empty account list is treated as "no change": no callback fires and
// the identity stays as it was. A UI relying solely on this callback will
// not learn that all accounts were removed.
func (s *Session) handleAccountsChanged(accounts []types.Identity) {
	if len(accounts) == 0 {
		s.logger.WalletEvent("accounts_changed_empty", "", nil)
		return
	}

	identity := accounts[0]

	s.mu.Lock()
	s.identity = identity
	subs := make([]func(types.Identity), 0, len(s.accountSubs))
	for _, fn := range s.accountSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.WalletEvent("account_changed", string(identity), nil)

	for _, fn := range subs {
		fn(identity)
	}
}

// handleChainChanged processes a provider network-change notification and
// recomputes the network confirmation against the target chain.
func (s *Session) handleChainChanged(chainID int64) {
	s.mu.Lock()
	s.lastChainID = chainID
	s.networkConfirmed = chainID == s.guard.Target()
	confirmed := s.networkConfirmed
	subs := make([]func(int64), 0, len(s.chainSubs))
	for _, fn := range s.chainSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.WalletEvent("chain_changed", "", map[string]interface{}{
		"chain_id":          chainID,
		"network_confirmed": confirmed,
	})

	for _, fn := range subs {
		fn(chainID)
	}
}
