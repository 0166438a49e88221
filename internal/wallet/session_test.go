package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// fakeProvider is a scriptable wallet provider for session and guard tests.
// It counts prompting calls so tests can assert on the exact number of
// user-visible wallet interactions.
type fakeProvider struct {
	mu          sync.Mutex
	accounts    []types.Identity
	requestErr  error
	chainID     int64
	knownChains map[int64]bool
	switchErr   error

	requestCalls int32
	switchCalls  int32
	addCalls     int32

	requestDelay time.Duration

	accountSubs []func([]types.Identity)
	chainSubs   []func(int64)
}

func newFakeProvider(accounts []string, chainID int64) *fakeProvider {
	ids := make([]types.Identity, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, types.NormalizeIdentity(a))
	}
	return &fakeProvider{
		accounts:    ids,
		chainID:     chainID,
		knownChains: map[int64]bool{chainID: true},
	}
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]types.Identity, error) {
	atomic.AddInt32(&p.requestCalls, 1)
	if p.requestDelay > 0 {
		time.Sleep(p.requestDelay)
	}
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Identity(nil), p.accounts...), nil
}

func (p *fakeProvider) Accounts(ctx context.Context) ([]types.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Identity(nil), p.accounts...), nil
}

func (p *fakeProvider) ChainID(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

func (p *fakeProvider) SwitchChain(ctx context.Context, chainID int64) error {
	atomic.AddInt32(&p.switchCalls, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.switchErr != nil {
		return p.switchErr
	}
	if !p.knownChains[chainID] {
		return ErrUnknownChain
	}
	p.chainID = chainID
	return nil
}

func (p *fakeProvider) AddChain(ctx context.Context, network types.NetworkDescriptor) error {
	atomic.AddInt32(&p.addCalls, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.knownChains[network.ChainID] = true
	p.chainID = network.ChainID
	return nil
}

func (p *fakeProvider) Balance(ctx context.Context, account types.Identity) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (p *fakeProvider) OnAccountsChanged(fn func([]types.Identity)) Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountSubs = append(p.accountSubs, fn)
	return SubscriptionFunc(func() {})
}

func (p *fakeProvider) OnChainChanged(fn func(int64)) Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chainSubs = append(p.chainSubs, fn)
	return SubscriptionFunc(func() {})
}

func (p *fakeProvider) emitAccountsChanged(accounts []string) {
	ids := make([]types.Identity, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, types.NormalizeIdentity(a))
	}
	p.mu.Lock()
	p.accounts = ids
	subs := append([]func([]types.Identity){}, p.accountSubs...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(ids)
	}
}

func (p *fakeProvider) emitChainChanged(chainID int64) {
	p.mu.Lock()
	p.chainID = chainID
	subs := append([]func(int64){}, p.chainSubs...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(chainID)
	}
}

var testNetwork = types.NetworkDescriptor{
	ChainID:        44787,
	Name:           "Celo Alfajores Testnet",
	NativeCurrency: "CELO",
	RPCURL:         "https://alfajores-forno.celo-testnet.org",
	ExplorerURL:    "https://alfajores.celoscan.io",
}

func setupTestSession(provider Provider) *Session {
	log := logger.New("error")
	guard := NewNetworkGuard(provider, testNetwork, log)
	return NewSession(provider, guard, log)
}

func TestSession_Connect(t *testing.T) {
	t.Run("successful connect returns primary identity", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1b2C3d4E5f60000000000000000000000000001"}, 44787)
		session := setupTestSession(provider)

		identity, err := session.Connect(context.Background())

		require.NoError(t, err)
		assert.Equal(t, types.Identity("0xa1b2c3d4e5f60000000000000000000000000001"), identity)

		status := session.Status()
		assert.Equal(t, types.SessionConnected, status.State)
		assert.True(t, status.NetworkConfirmed)
	})

	t.Run("no provider fails WALLET_UNAVAILABLE", func(t *testing.T) {
		session := setupTestSession(nil)

		_, err := session.Connect(context.Background())

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeWalletUnavailable))
	})

	t.Run("empty account list fails NO_ACCOUNTS", func(t *testing.T) {
		provider := newFakeProvider(nil, 44787)
		session := setupTestSession(provider)

		_, err := session.Connect(context.Background())

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeNoAccounts))
		assert.Equal(t, types.SessionDisconnected, session.Status().State)
	})

	t.Run("network switch completes before connect resolves", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 1)
		provider.knownChains[44787] = true
		session := setupTestSession(provider)

		_, err := session.Connect(context.Background())
		require.NoError(t, err)

		chainID, _ := provider.ChainID(context.Background())
		assert.Equal(t, int64(44787), chainID)
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.switchCalls))
	})

	t.Run("network rejection surfaces and leaves session disconnected", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 1)
		provider.switchErr = errors.New("user rejected")
		session := setupTestSession(provider)

		_, err := session.Connect(context.Background())

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeNetworkSwitchRejected))
		assert.Equal(t, types.SessionDisconnected, session.Status().State)

		_, err = session.RequireConnected()
		assert.True(t, types.HasCode(err, types.ErrCodeNotConnected))
	})

	t.Run("connect when connected does not prompt again", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 44787)
		session := setupTestSession(provider)

		first, err := session.Connect(context.Background())
		require.NoError(t, err)

		second, err := session.Connect(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.requestCalls))
	})
}

func TestSession_Connect_Coalesced(t *testing.T) {
	provider := newFakeProvider([]string{"0xA1"}, 44787)
	provider.requestDelay = 50 * time.Millisecond
	session := setupTestSession(provider)

	const callers = 5
	results := make([]types.Identity, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = session.Connect(context.Background())
		}(i)
	}
	wg.Wait()

	// One in-flight attempt serves every caller: a single wallet prompt.
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.requestCalls))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, types.Identity("0xa1"), results[i])
	}
}

func TestSession_Account(t *testing.T) {
	t.Run("returns identity without prompting", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 44787)
		session := setupTestSession(provider)

		identity := session.Account(context.Background())

		assert.Equal(t, types.Identity("0xa1"), identity)
		assert.Equal(t, int32(0), atomic.LoadInt32(&provider.requestCalls))
	})

	t.Run("empty when no provider", func(t *testing.T) {
		session := setupTestSession(nil)
		assert.True(t, session.Account(context.Background()).IsZero())
	})

	t.Run("empty when no accounts", func(t *testing.T) {
		provider := newFakeProvider(nil, 44787)
		session := setupTestSession(provider)
		assert.True(t, session.Account(context.Background()).IsZero())
	})
}

func TestSession_Disconnect(t *testing.T) {
	provider := newFakeProvider([]string{"0xA1"}, 44787)
	session := setupTestSession(provider)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	session.Disconnect()
	assert.Equal(t, types.SessionDisconnected, session.Status().State)
	assert.True(t, session.Status().Identity.IsZero())

	// Idempotent
	session.Disconnect()
	assert.Equal(t, types.SessionDisconnected, session.Status().State)
}

func TestSession_AccountsChanged(t *testing.T) {
	t.Run("re-emits new identity and replaces current", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 44787)
		session := setupTestSession(provider)

		_, err := session.Connect(context.Background())
		require.NoError(t, err)

		var got types.Identity
		sub := session.OnAccountChanged(func(id types.Identity) { got = id })
		defer sub.Unsubscribe()

		provider.emitAccountsChanged([]string{"0xB2"})

		assert.Equal(t, types.Identity("0xb2"), got)
		assert.Equal(t, types.Identity("0xb2"), session.Status().Identity)
	})

	t.Run("empty account list fires no callback", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 44787)
		session := setupTestSession(provider)

		_, err := session.Connect(context.Background())
		require.NoError(t, err)

		fired := false
		sub := session.OnAccountChanged(func(types.Identity) { fired = true })
		defer sub.Unsubscribe()

		provider.emitAccountsChanged(nil)

		assert.False(t, fired)
		// Identity stays as it was; a UI watching only this callback will
		// not learn the accounts were removed.
		assert.Equal(t, types.Identity("0xa1"), session.Status().Identity)
	})

	t.Run("unsubscribed callback stops firing", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 44787)
		session := setupTestSession(provider)

		calls := 0
		sub := session.OnAccountChanged(func(types.Identity) { calls++ })

		provider.emitAccountsChanged([]string{"0xB2"})
		sub.Unsubscribe()
		provider.emitAccountsChanged([]string{"0xC3"})

		assert.Equal(t, 1, calls)
	})
}

func TestSession_ChainChanged(t *testing.T) {
	provider := newFakeProvider([]string{"0xA1"}, 44787)
	session := setupTestSession(provider)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	var gotChain int64
	sub := session.OnChainChanged(func(id int64) { gotChain = id })
	defer sub.Unsubscribe()

	// Moving off the target network clears the confirmation
	provider.emitChainChanged(1)
	assert.Equal(t, int64(1), gotChain)

	_, err = session.RequireConnected()
	assert.True(t, types.HasCode(err, types.ErrCodeNotConnected))

	// Moving back restores it
	provider.emitChainChanged(44787)
	_, err = session.RequireConnected()
	assert.NoError(t, err)
}
