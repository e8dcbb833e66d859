package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixQueuePayload = "QUEUE:PAYLOAD:"
	prefixQueueState   = "QUEUE:STATE:"
)

// WriteTransaction queues tx or records its new state, one timed key per
// trace id.
func (bs *BadgerStore) WriteTransaction(tx *runtime.Transaction) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		old, err := bs.readTransaction(txn, tx.TraceId)
		if err != nil {
			return err
		}
		if old != nil {
			err = txn.Delete(queueTimedKey(old))
			if err != nil {
				return err
			}
		}
		err = txn.Set([]byte(prefixQueuePayload+tx.TraceId), common.MsgpackMarshalPanic(tx))
		if err != nil {
			return err
		}
		return txn.Set(queueTimedKey(tx), []byte{1})
	})
}

func (bs *BadgerStore) ReadTransaction(traceId string) (*runtime.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readTransaction(txn, traceId)
}

// ListTransactions is the queue of one state, oldest first, a limit of zero
// or less lists all of them.
func (bs *BadgerStore) ListTransactions(state int, limit int) ([]*runtime.Transaction, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var txs []*runtime.Transaction
	err := timedKeys(txn, queueStatePrefix(state), func(id string) (bool, error) {
		tx, err := bs.readTransaction(txn, id)
		if err != nil {
			return false, err
		}
		txs = append(txs, tx)
		return limit <= 0 || len(txs) < limit, nil
	})
	return txs, err
}

func (bs *BadgerStore) readTransaction(txn *badger.Txn, traceId string) (*runtime.Transaction, error) {
	var tx runtime.Transaction
	found, err := readPayload(txn, []byte(prefixQueuePayload+traceId), &tx)
	if err != nil || !found {
		return nil, err
	}
	return &tx, nil
}

func queueTimedKey(tx *runtime.Transaction) []byte {
	key := append([]byte(queueStatePrefix(tx.State)), tsToBytes(tx.UpdatedAt)...)
	return append(key, tx.TraceId...)
}

// state suffixes share one length so timestamps line up across states
func queueStatePrefix(state int) string {
	switch state {
	case runtime.TransactionStateInitial:
		return prefixQueueState + "pending"
	case runtime.TransactionStateDone:
		return prefixQueueState + "done###"
	case runtime.TransactionStateFailed:
		return prefixQueueState + "failed#"
	}
	panic(state)
}
