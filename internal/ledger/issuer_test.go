package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// stubTx resolves with a fixed receipt after an optional delay
type stubTx struct {
	receipt *Receipt
	err     error
	delay   time.Duration
}

func (t *stubTx) Wait(ctx context.Context) (*Receipt, error) {
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return t.receipt, t.err
}

func TestIssuer_Issue(t *testing.T) {
	log := logger.New("error")
	ledger := setupTestLedger()

	t.Run("successful issue returns the receipt shape", func(t *testing.T) {
		issuer := NewIssuer(ledger, log, time.Second)
		id := int64(7)

		result, err := issuer.Issue(context.Background(), types.OpRegisterDocument, func(ctx context.Context) (PendingTx, error) {
			return &stubTx{receipt: &Receipt{TxHash: "0xabc", DocumentID: &id}}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, "0xabc", result.TransactionHash)
		require.NotNil(t, result.SubjectID)
		assert.Equal(t, int64(7), *result.SubjectID)
	})

	t.Run("domain errors pass through unchanged", func(t *testing.T) {
		issuer := NewIssuer(ledger, log, time.Second)
		notOwner := types.NewAuthorizationError(types.ErrCodeNotOwner, "caller does not own document 3", nil)

		_, err := issuer.Issue(context.Background(), types.OpGrantAccess, func(ctx context.Context) (PendingTx, error) {
			return nil, notOwner
		})

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeNotOwner))
	})

	t.Run("other submit rejections wrap as SUBMISSION_FAILED", func(t *testing.T) {
		issuer := NewIssuer(ledger, log, time.Second)
		revert := errors.New("execution reverted: insufficient balance")

		_, err := issuer.Issue(context.Background(), types.OpRegisterDocument, func(ctx context.Context) (PendingTx, error) {
			return nil, revert
		})

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeSubmissionFailed))
		assert.True(t, errors.Is(err, revert))
	})

	t.Run("missed confirmation fails CONFIRMATION_TIMEOUT", func(t *testing.T) {
		issuer := NewIssuer(ledger, log, 20*time.Millisecond)

		_, err := issuer.Issue(context.Background(), types.OpRegisterDocument, func(ctx context.Context) (PendingTx, error) {
			return &stubTx{receipt: &Receipt{TxHash: "0xabc"}, delay: 500 * time.Millisecond}, nil
		})

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeConfirmationTimeout))
	})
}

// rejectingBackend simulates a chain that rejects every submission
type rejectingBackend struct {
	reason error
}

func (b *rejectingBackend) SubmitRegisterDocument(ctx context.Context, caller types.Identity, contentID, documentType, encryptionHash string) (ContractTx, error) {
	return nil, b.reason
}

func (b *rejectingBackend) SubmitGrantAccess(ctx context.Context, caller types.Identity, documentIDs []int64, facilities []types.Identity) (ContractTx, error) {
	return nil, b.reason
}

func (b *rejectingBackend) SubmitRevokeAccess(ctx context.Context, caller types.Identity, documentID int64, facility types.Identity) (ContractTx, error) {
	return nil, b.reason
}

func (b *rejectingBackend) CallUserDocuments(ctx context.Context, owner types.Identity) ([]int64, error) {
	return nil, b.reason
}

func (b *rejectingBackend) CallDocument(ctx context.Context, documentID int64) (*types.Document, error) {
	return nil, nil
}

func (b *rejectingBackend) CallHasValidAccess(ctx context.Context, documentID int64, facility types.Identity) (bool, error) {
	return false, nil
}

func TestRealLedger(t *testing.T) {
	log := logger.New("error")

	t.Run("submission rejection surfaces as SUBMISSION_FAILED", func(t *testing.T) {
		reason := errors.New("insufficient funds for gas")
		real := NewRealLedger(&rejectingBackend{reason: reason}, log)

		_, err := real.RegisterDocument(context.Background(), "0xa1", "c1", "report", "h1")

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeSubmissionFailed))
		assert.True(t, errors.Is(err, reason))
	})

	t.Run("missing document read maps to NOT_FOUND", func(t *testing.T) {
		real := NewRealLedger(&rejectingBackend{reason: errors.New("unused")}, log)

		_, err := real.Document(context.Background(), 42)

		require.Error(t, err)
		assert.True(t, types.HasCode(err, types.ErrCodeNotFound))
	})
}
