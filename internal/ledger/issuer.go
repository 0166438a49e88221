package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// Issuer wraps every mutating registry call in a uniform intent, submit,
// confirm, result pipeline. Callers get the same TransactionResult shape
// whether the backing ledger is simulated or real.
type Issuer struct {
	ledger         Ledger
	logger         *logger.Logger
	confirmTimeout time.Duration
}

// NewIssuer creates an issuer over the given ledger backend
func NewIssuer(l Ledger, log *logger.Logger, confirmTimeout time.Duration) *Issuer {
	return &Issuer{
		ledger:         l,
		logger:         log,
		confirmTimeout: confirmTimeout,
	}
}

// Ledger exposes the backing ledger for read queries
func (i *Issuer) Ledger() Ledger {
	return i.ledger
}

// Issue runs one mutating operation through the pipeline. Domain errors
// from submission (ownership, not found) pass through unchanged; any other
// rejection becomes SUBMISSION_FAILED with the cause preserved. The result
// is only returned once the operation is durably recorded; if inclusion
// does not happen within the confirmation bound the caller gets
// CONFIRMATION_TIMEOUT, though the underlying transaction may still land.
func (i *Issuer) Issue(ctx context.Context, op types.OperationKind, submit func(ctx context.Context) (PendingTx, error)) (*types.TransactionResult, error) {
	intentID := uuid.New().String()

	i.logger.WithFields(map[string]interface{}{
		"operation": string(op),
		"intent_id": intentID,
	}).Debug("Submitting registry transaction")

	tx, err := submit(ctx)
	if err != nil {
		if _, ok := types.AsVitalError(err); ok {
			i.logger.ChainTransaction(string(op), intentID, "", false, map[string]interface{}{
				"stage": "submit",
				"error": err.Error(),
			})
			return nil, err
		}
		i.logger.ChainTransaction(string(op), intentID, "", false, map[string]interface{}{
			"stage": "submit",
			"error": err.Error(),
		})
		return nil, types.NewTransactionError(types.ErrCodeSubmissionFailed, "ledger rejected the transaction", err)
	}

	waitCtx := ctx
	if i.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, i.confirmTimeout)
		defer cancel()
	}

	receipt, err := tx.Wait(waitCtx)
	if err != nil {
		if _, ok := types.AsVitalError(err); ok {
			return nil, err
		}
		i.logger.ChainTransaction(string(op), intentID, "", false, map[string]interface{}{
			"stage": "confirm",
			"error": err.Error(),
		})
		return nil, types.NewTransactionError(types.ErrCodeConfirmationTimeout, "transaction was not confirmed in time", err)
	}

	result := &types.TransactionResult{
		TransactionHash: receipt.TxHash,
		SubjectID:       receipt.DocumentID,
	}

	i.logger.ChainTransaction(string(op), intentID, receipt.TxHash, true, map[string]interface{}{
		"subject_id": receipt.DocumentID,
	})

	return result, nil
}
