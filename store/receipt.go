package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/dgraph-io/badger/v3"
)

const (
	prefixReceiptPayload = "RECEIPT:PAYLOAD:"
	prefixReceiptState   = "RECEIPT:STATE:"
)

func (bs *BadgerStore) ReadReceipt(traceId string) (*runtime.Receipt, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readReceipt(txn, traceId)
}

// ListReceipts returns receipts of one state, oldest first. A limit of zero
// or less lists all of them.
func (bs *BadgerStore) ListReceipts(state int, limit int) ([]*runtime.Receipt, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	var rs []*runtime.Receipt
	err := timedKeys(txn, receiptStatePrefix(state), func(id string) (bool, error) {
		r, err := bs.readReceipt(txn, id)
		if err != nil {
			return false, err
		}
		rs = append(rs, r)
		return limit <= 0 || len(rs) < limit, nil
	})
	return rs, err
}

// writeReceipt moves the timed key when the state of a trace id changes.
func (bs *BadgerStore) writeReceipt(txn *badger.Txn, r *runtime.Receipt) error {
	old, err := bs.readReceipt(txn, r.TraceId)
	if err != nil {
		return err
	}
	if old != nil {
		err = txn.Delete(receiptTimedKey(old))
		if err != nil {
			return err
		}
	}
	err = txn.Set([]byte(prefixReceiptPayload+r.TraceId), common.MsgpackMarshalPanic(r))
	if err != nil {
		return err
	}
	return txn.Set(receiptTimedKey(r), []byte{1})
}

func (bs *BadgerStore) readReceipt(txn *badger.Txn, traceId string) (*runtime.Receipt, error) {
	var r runtime.Receipt
	found, err := readPayload(txn, []byte(prefixReceiptPayload+traceId), &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

func receiptTimedKey(r *runtime.Receipt) []byte {
	key := append([]byte(receiptStatePrefix(r.State)), tsToBytes(r.CreatedAt)...)
	return append(key, r.TraceId...)
}

func receiptStatePrefix(state int) string {
	switch state {
	case runtime.TransactionStateDone:
		return prefixReceiptState + "done"
	case runtime.TransactionStateFailed:
		return prefixReceiptState + "fail"
	}
	panic(state)
}
