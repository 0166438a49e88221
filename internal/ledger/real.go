package ledger

import (
	"context"
	"fmt"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// EventDocumentRegistered is the contract event carrying the assigned
// document id.
const EventDocumentRegistered = "DocumentRegistered"

// ContractEvent is one event emitted by an included transaction.
type ContractEvent struct {
	Name       string
	DocumentID int64
}

// ContractReceipt is the inclusion receipt from the backing chain.
type ContractReceipt struct {
	TxHash string
	Events []ContractEvent
}

// ContractTx is a submitted contract call awaiting inclusion.
type ContractTx interface {
	WaitReceipt(ctx context.Context) (*ContractReceipt, error)
}

// ContractBackend is the operation contract of the on-chain registry: the
// method surface, argument shapes, and emitted-event shapes. The contract
// implementation itself lives outside this repo; adapters over an RPC node
// or an SDK satisfy this interface.
type ContractBackend interface {
	SubmitRegisterDocument(ctx context.Context, caller types.Identity, contentID, documentType, encryptionHash string) (ContractTx, error)
	SubmitGrantAccess(ctx context.Context, caller types.Identity, documentIDs []int64, facilities []types.Identity) (ContractTx, error)
	SubmitRevokeAccess(ctx context.Context, caller types.Identity, documentID int64, facility types.Identity) (ContractTx, error)

	CallUserDocuments(ctx context.Context, owner types.Identity) ([]int64, error)
	CallDocument(ctx context.Context, documentID int64) (*types.Document, error)
	CallHasValidAccess(ctx context.Context, documentID int64, facility types.Identity) (bool, error)
}

// RealLedger adapts a ContractBackend to the Ledger surface. Submission
// rejections (insufficient balance, contract revert) surface as
// SUBMISSION_FAILED with the cause preserved; ownership checks happen in
// the registry client via reads before submission, so they carry the same
// error codes in both execution modes.
type RealLedger struct {
	backend ContractBackend
	logger  *logger.Logger
}

// NewRealLedger creates a ledger over the given contract backend
func NewRealLedger(backend ContractBackend, log *logger.Logger) *RealLedger {
	return &RealLedger{
		backend: backend,
		logger:  log,
	}
}

type realTx struct {
	tx       ContractTx
	register bool
}

func (t *realTx) Wait(ctx context.Context) (*Receipt, error) {
	receipt, err := t.tx.WaitReceipt(ctx)
	if err != nil {
		return nil, err
	}

	out := &Receipt{TxHash: receipt.TxHash}

	if t.register {
		for _, ev := range receipt.Events {
			if ev.Name == EventDocumentRegistered {
				id := ev.DocumentID
				out.DocumentID = &id
				break
			}
		}
		if out.DocumentID == nil {
			return nil, types.NewTransactionError(types.ErrCodeSubmissionFailed,
				"registration receipt carried no DocumentRegistered event", nil)
		}
	}

	return out, nil
}

// RegisterDocument submits a registration call
func (l *RealLedger) RegisterDocument(ctx context.Context, caller types.Identity, contentID, documentType, encryptionHash string) (PendingTx, error) {
	tx, err := l.backend.SubmitRegisterDocument(ctx, caller, contentID, documentType, encryptionHash)
	if err != nil {
		return nil, types.NewTransactionError(types.ErrCodeSubmissionFailed, "register document submission rejected", err)
	}
	return &realTx{tx: tx, register: true}, nil
}

// GrantAccess submits a batch grant call
func (l *RealLedger) GrantAccess(ctx context.Context, caller types.Identity, documentIDs []int64, facilities []types.Identity) (PendingTx, error) {
	tx, err := l.backend.SubmitGrantAccess(ctx, caller, documentIDs, facilities)
	if err != nil {
		return nil, types.NewTransactionError(types.ErrCodeSubmissionFailed, "grant access submission rejected", err)
	}
	return &realTx{tx: tx}, nil
}

// RevokeAccess submits a revocation call
func (l *RealLedger) RevokeAccess(ctx context.Context, caller types.Identity, documentID int64, facility types.Identity) (PendingTx, error) {
	tx, err := l.backend.SubmitRevokeAccess(ctx, caller, documentID, facility)
	if err != nil {
		return nil, types.NewTransactionError(types.ErrCodeSubmissionFailed, "revoke access submission rejected", err)
	}
	return &realTx{tx: tx}, nil
}

// UserDocuments reads the owner's document ids from the contract
func (l *RealLedger) UserDocuments(ctx context.Context, owner types.Identity) ([]int64, error) {
	ids, err := l.backend.CallUserDocuments(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("user documents query failed: %w", err)
	}
	return ids, nil
}

// Document reads one document from the contract
func (l *RealLedger) Document(ctx context.Context, documentID int64) (*types.Document, error) {
	doc, err := l.backend.CallDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, types.NewNotFoundError(fmt.Sprintf("document %d does not exist", documentID))
	}
	return doc, nil
}

// HasValidAccess reads the access validity flag from the contract
func (l *RealLedger) HasValidAccess(ctx context.Context, documentID int64, facility types.Identity) (bool, error) {
	return l.backend.CallHasValidAccess(ctx, documentID, facility)
}
