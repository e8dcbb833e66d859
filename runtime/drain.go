package runtime

import (
	"context"
	"time"

	"github.com/MixinNetwork/mixin/logger"
)

const DefaultQueueBatch = 16

// SubmitTransaction queues tx for Run. Submitting a known trace id again is
// a no-op.
func (rt *Runtime) SubmitTransaction(tx *Transaction) error {
	err := tx.Verify()
	if err != nil {
		return err
	}
	old, err := rt.store.ReadTransaction(tx.TraceId)
	if err != nil || old != nil {
		return err
	}
	tx.State = TransactionStateInitial
	tx.UpdatedAt = time.Now()
	return rt.store.WriteTransaction(tx)
}

func (rt *Runtime) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := rt.drainTransactions(ctx)
		if err != nil {
			logger.Printf("Runtime.drainTransactions() => %v\n", err)
		}
		if n > 0 && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (rt *Runtime) drainTransactions(ctx context.Context) (int, error) {
	batch := rt.conf.QueueBatch
	if batch <= 0 {
		batch = DefaultQueueBatch
	}
	txs, err := rt.store.ListTransactions(TransactionStateInitial, batch)
	if err != nil {
		return 0, err
	}
	for _, tx := range txs {
		if ctx.Err() != nil {
			return 0, nil
		}
		err := rt.ProcessTransaction(ctx, tx)
		tx.State = TransactionStateDone
		if err != nil {
			tx.State = TransactionStateFailed
		}
		tx.UpdatedAt = time.Now()
		err = rt.store.WriteTransaction(tx)
		if err != nil {
			return 0, err
		}
	}
	return len(txs), nil
}
