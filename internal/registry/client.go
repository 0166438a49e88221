package registry

import (
	"context"
	"fmt"

	"github.com/diptomoy-das/vital-docs-share/internal/ledger"
	"github.com/diptomoy-das/vital-docs-share/internal/wallet"
	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// Client is the operation surface for document registration, access
// grant/revoke, and read queries. Every method requires an active session
// on the confirmed target network; the identity captured on entry is used
// for the whole operation, so an account change mid-flight never swaps the
// actor.
type Client struct {
	session *wallet.Session
	issuer  *ledger.Issuer
	ledger  ledger.Ledger
	logger  *logger.Logger
}

// NewClient creates a registry client
func NewClient(session *wallet.Session, issuer *ledger.Issuer, log *logger.Logger) *Client {
	return &Client{
		session: session,
		issuer:  issuer,
		ledger:  issuer.Ledger(),
		logger:  log,
	}
}

// RegisterDocument registers a new document owned by the current identity.
// The content id and encryption hash are opaque references into the
// off-core storage pipeline; the registry never interprets them.
func (c *Client) RegisterDocument(ctx context.Context, contentID, documentType, encryptionHash string) (*types.TransactionResult, error) {
	caller, err := c.session.RequireConnected()
	if err != nil {
		return nil, err
	}

	if contentID == "" {
		return nil, types.NewValidationError("content id is required", nil)
	}
	if documentType == "" {
		return nil, types.NewValidationError("document type is required", nil)
	}

	result, err := c.issuer.Issue(ctx, types.OpRegisterDocument, func(ctx context.Context) (ledger.PendingTx, error) {
		return c.ledger.RegisterDocument(ctx, caller, contentID, documentType, encryptionHash)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Audit(string(caller), "register_document", contentID, true, map[string]interface{}{
		"document_type": documentType,
		"subject_id":    result.SubjectID,
	})

	return result, nil
}

// GrantAccess grants every facility access to every document: the pairing
// rule is the full cartesian product of the two lists, so granting
// documents [1,2] to facilities [A,B] gives both facilities access to both
// documents. The batch is all-or-nothing; if any document is missing or not
// owned by the caller, no grant from the batch is applied.
func (c *Client) GrantAccess(ctx context.Context, documentIDs []int64, facilities []types.Identity) (*types.TransactionResult, error) {
	caller, err := c.session.RequireConnected()
	if err != nil {
		return nil, err
	}

	if len(documentIDs) == 0 {
		return nil, types.NewValidationError("at least one document id is required", nil)
	}
	if len(facilities) == 0 {
		return nil, types.NewValidationError("at least one facility identity is required", nil)
	}

	// Ownership pre-check over the whole batch. The ledger enforces this
	// too, but checking via reads keeps the error codes identical across
	// simulated and real execution.
	if err := c.checkOwnership(ctx, caller, documentIDs); err != nil {
		c.logger.Audit(string(caller), "grant_access", fmt.Sprintf("%v", documentIDs), false, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	result, err := c.issuer.Issue(ctx, types.OpGrantAccess, func(ctx context.Context) (ledger.PendingTx, error) {
		return c.ledger.GrantAccess(ctx, caller, documentIDs, facilities)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Audit(string(caller), "grant_access", fmt.Sprintf("%v", documentIDs), true, map[string]interface{}{
		"facilities": facilities,
	})

	return result, nil
}

// RevokeAccess turns off a facility's grant on one document. Revoking a
// grant that never existed succeeds as a no-op transaction.
func (c *Client) RevokeAccess(ctx context.Context, documentID int64, facility types.Identity) (*types.TransactionResult, error) {
	caller, err := c.session.RequireConnected()
	if err != nil {
		return nil, err
	}

	if err := c.checkOwnership(ctx, caller, []int64{documentID}); err != nil {
		return nil, err
	}

	result, err := c.issuer.Issue(ctx, types.OpRevokeAccess, func(ctx context.Context) (ledger.PendingTx, error) {
		return c.ledger.RevokeAccess(ctx, caller, documentID, facility)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Audit(string(caller), "revoke_access", fmt.Sprintf("%d", documentID), true, map[string]interface{}{
		"facility": facility,
	})

	return result, nil
}

// UserDocuments returns the ids of every document owned by the current
// identity
func (c *Client) UserDocuments(ctx context.Context) ([]int64, error) {
	caller, err := c.session.RequireConnected()
	if err != nil {
		return nil, err
	}

	return c.ledger.UserDocuments(ctx, caller)
}

// Document returns a registered document, NOT_FOUND if the id was never
// assigned. Any connected identity may read document metadata.
func (c *Client) Document(ctx context.Context, documentID int64) (*types.Document, error) {
	if _, err := c.session.RequireConnected(); err != nil {
		return nil, err
	}

	return c.ledger.Document(ctx, documentID)
}

// HasValidAccess reports whether the facility holds a live grant on an
// active document. It is a passive status check open to any connected
// identity and degrades to false rather than failing: a facility can
// self-check before presenting a document reference.
func (c *Client) HasValidAccess(ctx context.Context, documentID int64, facility types.Identity) (bool, error) {
	if _, err := c.session.RequireConnected(); err != nil {
		return false, err
	}

	ok, err := c.ledger.HasValidAccess(ctx, documentID, facility)
	if err != nil {
		if types.HasCode(err, types.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}

	return ok, nil
}

// checkOwnership verifies the caller owns every document in the batch
func (c *Client) checkOwnership(ctx context.Context, caller types.Identity, documentIDs []int64) error {
	for _, id := range documentIDs {
		doc, err := c.ledger.Document(ctx, id)
		if err != nil {
			return err
		}
		if doc.Owner != caller {
			return types.NewAuthorizationError(types.ErrCodeNotOwner,
				fmt.Sprintf("caller does not own document %d", id),
				map[string]interface{}{"document_id": id})
		}
	}
	return nil
}
