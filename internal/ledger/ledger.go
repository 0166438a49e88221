package ledger

import (
	"context"

	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// Receipt is the confirmation of one included transaction. DocumentID is
// set when the operation emitted a registration event.
type Receipt struct {
	TxHash     string
	DocumentID *int64
}

// PendingTx is a submitted-but-unconfirmed transaction. Wait blocks until
// the operation is durably recorded or the context expires. Abandoning a
// pending transaction does not cancel it; the underlying operation still
// completes.
type PendingTx interface {
	Wait(ctx context.Context) (*Receipt, error)
}

// Ledger is the registry operation surface both execution modes implement.
// Mutating calls return a pending transaction; reads return directly.
// Callers pass the identity captured at submission time, never the
// session's live one.
type Ledger interface {
	RegisterDocument(ctx context.Context, caller types.Identity, contentID, documentType, encryptionHash string) (PendingTx, error)
	GrantAccess(ctx context.Context, caller types.Identity, documentIDs []int64, facilities []types.Identity) (PendingTx, error)
	RevokeAccess(ctx context.Context, caller types.Identity, documentID int64, facility types.Identity) (PendingTx, error)

	UserDocuments(ctx context.Context, owner types.Identity) ([]int64, error)
	Document(ctx context.Context, documentID int64) (*types.Document, error)
	HasValidAccess(ctx context.Context, documentID int64, facility types.Identity) (bool, error)
}
