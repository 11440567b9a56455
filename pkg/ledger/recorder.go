package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recorder appends immutable transaction records with their audit fields
// filled in. Inputs are pre-validated by the service, so any failure here is
// a storage failure.
type Recorder struct {
	txns TransactionStore
}

func NewRecorder(txns TransactionStore) *Recorder {
	return &Recorder{txns: txns}
}

func (r *Recorder) Append(ctx context.Context, txn Transaction) (Transaction, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	id, err := r.txns.Append(ctx, txn)
	if err != nil {
		return Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	txn.ID = id
	return txn, nil
}
