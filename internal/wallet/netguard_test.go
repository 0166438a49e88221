package wallet

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

func setupTestGuard(provider Provider) *NetworkGuard {
	return NewNetworkGuard(provider, testNetwork, logger.New("error"))
}

func TestNetworkGuard_Ensure(t *testing.T) {
	t.Run("already on target issues zero prompts", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 44787)
		guard := setupTestGuard(provider)

		err := guard.Ensure(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int32(0), atomic.LoadInt32(&provider.switchCalls))
		assert.Equal(t, int32(0), atomic.LoadInt32(&provider.addCalls))
	})

	t.Run("known network switches with a single prompt", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 1)
		provider.knownChains[44787] = true
		guard := setupTestGuard(provider)

		err := guard.Ensure(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.switchCalls))
		assert.Equal(t, int32(0), atomic.LoadInt32(&provider.addCalls))

		chainID, _ := provider.ChainID(context.Background())
		assert.Equal(t, int64(44787), chainID)
	})

	t.Run("unknown network adds with the full descriptor", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 1)
		guard := setupTestGuard(provider)

		err := guard.Ensure(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.switchCalls))
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.addCalls))

		chainID, _ := provider.ChainID(context.Background())
		assert.Equal(t, int64(44787), chainID)
	})

	t.Run("rejected switch is fatal and never retried", func(t *testing.T) {
		rejection := errors.New("user rejected the request")
		provider := newFakeProvider([]string{"0xA1"}, 1)
		provider.switchErr = rejection
		guard := setupTestGuard(provider)

		err := guard.Ensure(context.Background())

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeNetworkSwitchRejected))
		// Original cause preserved for display
		assert.True(t, errors.Is(err, rejection))
		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.switchCalls))
		assert.Equal(t, int32(0), atomic.LoadInt32(&provider.addCalls))
	})

	t.Run("idempotent after a successful switch", func(t *testing.T) {
		provider := newFakeProvider([]string{"0xA1"}, 1)
		provider.knownChains[44787] = true
		guard := setupTestGuard(provider)

		require.NoError(t, guard.Ensure(context.Background()))
		require.NoError(t, guard.Ensure(context.Background()))

		assert.Equal(t, int32(1), atomic.LoadInt32(&provider.switchCalls))
	})
}

// lyingProvider accepts AddChain but stays on its original network
type lyingProvider struct {
	*fakeProvider
}

func (p *lyingProvider) AddChain(ctx context.Context, network types.NetworkDescriptor) error {
	atomic.AddInt32(&p.addCalls, 1)
	return nil
}

func TestNetworkGuard_AddDidNotSwitch(t *testing.T) {
	provider := &lyingProvider{fakeProvider: newFakeProvider([]string{"0xA1"}, 1)}
	guard := NewNetworkGuard(provider, testNetwork, logger.New("error"))

	err := guard.Ensure(context.Background())

	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrCodeNetworkSwitchRejected))
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.addCalls))
}
