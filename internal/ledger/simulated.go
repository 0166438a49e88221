package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// SimulatedConfig holds the synthetic confirmation latencies, one per
// operation kind. Batch grants touch more state than a single registration,
// so their modeled confirmation cost is higher.
type SimulatedConfig struct {
	RegisterLatency time.Duration
	GrantLatency    time.Duration
	RevokeLatency   time.Duration
	SubjectIDMax    int64
}

// DefaultSimulatedConfig returns the development latencies
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		RegisterLatency: 2 * time.Second,
		GrantLatency:    3 * time.Second,
		RevokeLatency:   1500 * time.Millisecond,
		SubjectIDMax:    1000000,
	}
}

type grantKey struct {
	documentID int64
	facility   types.Identity
}

// SimulatedLedger is the in-memory registry backend. It honors the same
// durability contract as the real one: a mutation is observable only after
// its synthetic confirmation delay has elapsed, and an abandoned waiter
// does not stop the mutation from landing.
type SimulatedLedger struct {
	logger *logger.Logger
	cfg    SimulatedConfig

	mu     sync.Mutex
	docs   map[int64]*types.Document
	owned  map[types.Identity][]int64
	grants map[grantKey]*types.AccessGrant
	nextID int64
}

// NewSimulatedLedger creates an empty simulated registry. The first
// document id is drawn from a uniform integer range; later ids increment,
// so ids stay unique and are never reused.
func NewSimulatedLedger(cfg SimulatedConfig, log *logger.Logger) *SimulatedLedger {
	max := cfg.SubjectIDMax
	if max <= 0 {
		max = 1000000
	}
	start, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		start = big.NewInt(0)
	}

	return &SimulatedLedger{
		logger: log,
		cfg:    cfg,
		docs:   make(map[int64]*types.Document),
		owned:  make(map[types.Identity][]int64),
		grants: make(map[grantKey]*types.AccessGrant),
		nextID: start.Int64() + 1,
	}
}

// simulatedTx applies its mutation after the synthetic delay, whether or
// not anyone is still waiting.
type simulatedTx struct {
	done    chan struct{}
	receipt *Receipt
}

func (t *simulatedTx) Wait(ctx context.Context) (*Receipt, error) {
	select {
	case <-t.done:
		return t.receipt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// start schedules apply after the delay and resolves the receipt
func (l *SimulatedLedger) start(delay time.Duration, apply func() *Receipt) PendingTx {
	tx := &simulatedTx{done: make(chan struct{})}

	go func() {
		time.Sleep(delay)
		tx.receipt = apply()
		close(tx.done)
	}()

	return tx
}

// RegisterDocument creates a new document owned by the caller once the
// synthetic confirmation elapses
func (l *SimulatedLedger) RegisterDocument(ctx context.Context, caller types.Identity, contentID, documentType, encryptionHash string) (PendingTx, error) {
	if caller.IsZero() {
		return nil, types.NewValidationError("caller identity is required", nil)
	}

	return l.start(l.cfg.RegisterLatency, func() *Receipt {
		l.mu.Lock()
		defer l.mu.Unlock()

		id := l.nextID
		l.nextID++

		l.docs[id] = &types.Document{
			DocumentID:     id,
			ContentID:      contentID,
			DocumentType:   documentType,
			Owner:          caller,
			EncryptionHash: encryptionHash,
			Timestamp:      time.Now().Unix(),
			IsActive:       true,
		}
		l.owned[caller] = append(l.owned[caller], id)

		return &Receipt{TxHash: syntheticTxHash(), DocumentID: &id}
	}), nil
}

// GrantAccess creates or refreshes a grant for every (document, facility)
// pair. Ownership of the whole batch is checked up front; a batch with any
// foreign document applies nothing.
func (l *SimulatedLedger) GrantAccess(ctx context.Context, caller types.Identity, documentIDs []int64, facilities []types.Identity) (PendingTx, error) {
	l.mu.Lock()
	for _, id := range documentIDs {
		doc, ok := l.docs[id]
		if !ok {
			l.mu.Unlock()
			return nil, types.NewNotFoundError(fmt.Sprintf("document %d does not exist", id))
		}
		if doc.Owner != caller {
			l.mu.Unlock()
			return nil, types.NewAuthorizationError(types.ErrCodeNotOwner,
				fmt.Sprintf("caller does not own document %d", id),
				map[string]interface{}{"document_id": id})
		}
	}
	l.mu.Unlock()

	ids := append([]int64(nil), documentIDs...)
	facs := append([]types.Identity(nil), facilities...)

	return l.start(l.cfg.GrantLatency, func() *Receipt {
		l.mu.Lock()
		defer l.mu.Unlock()

		now := time.Now().Unix()
		for _, id := range ids {
			for _, facility := range facs {
				l.grants[grantKey{documentID: id, facility: facility}] = &types.AccessGrant{
					DocumentID: id,
					Facility:   facility,
					Granted:    true,
					GrantedAt:  now,
				}
			}
		}

		return &Receipt{TxHash: syntheticTxHash()}
	}), nil
}

// RevokeAccess turns a grant off. Revoking a grant that never existed is a
// successful no-op transaction: the end state, no access, already holds.
func (l *SimulatedLedger) RevokeAccess(ctx context.Context, caller types.Identity, documentID int64, facility types.Identity) (PendingTx, error) {
	l.mu.Lock()
	doc, ok := l.docs[documentID]
	if !ok {
		l.mu.Unlock()
		return nil, types.NewNotFoundError(fmt.Sprintf("document %d does not exist", documentID))
	}
	if doc.Owner != caller {
		l.mu.Unlock()
		return nil, types.NewAuthorizationError(types.ErrCodeNotOwner,
			fmt.Sprintf("caller does not own document %d", documentID),
			map[string]interface{}{"document_id": documentID})
	}
	l.mu.Unlock()

	return l.start(l.cfg.RevokeLatency, func() *Receipt {
		l.mu.Lock()
		defer l.mu.Unlock()

		if grant, ok := l.grants[grantKey{documentID: documentID, facility: facility}]; ok {
			grant.Granted = false
		}

		return &Receipt{TxHash: syntheticTxHash()}
	}), nil
}

// UserDocuments returns the owner's document ids in insertion order
func (l *SimulatedLedger) UserDocuments(ctx context.Context, owner types.Identity) ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.owned[owner]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

// Document returns a registered document, NOT_FOUND if the id was never
// assigned
func (l *SimulatedLedger) Document(ctx context.Context, documentID int64) (*types.Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, ok := l.docs[documentID]
	if !ok {
		return nil, types.NewNotFoundError(fmt.Sprintf("document %d does not exist", documentID))
	}

	copied := *doc
	return &copied, nil
}

// HasValidAccess reports whether the document exists, is active, and holds
// a live grant for the facility
func (l *SimulatedLedger) HasValidAccess(ctx context.Context, documentID int64, facility types.Identity) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, ok := l.docs[documentID]
	if !ok || !doc.IsActive {
		return false, nil
	}

	grant, ok := l.grants[grantKey{documentID: documentID, facility: facility}]
	return ok && grant.Granted, nil
}

// syntheticTxHash draws 64 independent hex digits
func syntheticTxHash() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return "0x" + hex.EncodeToString(buf)
}
