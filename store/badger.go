package store

import (
	"context"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/dgraph-io/badger/v3"
	"github.com/gagliardetto/solana-go"
)

type BadgerStore struct {
	db *badger.DB
}

// OpenBadger keeps everything in memory when path is empty.
func OpenBadger(ctx context.Context, path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	if path != "" {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				lsm, vlog := db.Size()
				if lsm < 1024*1024*8 && vlog < 1024*1024*32 {
					continue
				}
				err := db.RunValueLogGC(0.5)
				logger.Printf("BadgerStore.GC(%d, %d) => %v\n", lsm, vlog, err)
			}
		}()
	}

	return &BadgerStore{
		db: db,
	}, nil
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

func (bs *BadgerStore) WriteProperty(key, val []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) ReadProperty(key []byte) ([]byte, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Update runs fn in one read-write transaction, committed only when fn
// returns nil.
func (bs *BadgerStore) Update(fn func(runtime.Batch) error) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerBatch{bs: bs, txn: txn})
	})
}

type badgerBatch struct {
	bs  *BadgerStore
	txn *badger.Txn
}

func (b *badgerBatch) ReadAccount(key solana.PublicKey) (*runtime.Account, error) {
	return b.bs.readAccount(b.txn, key)
}

func (b *badgerBatch) WriteAccount(acc *runtime.Account) error {
	return b.bs.writeAccount(b.txn, acc)
}

func (b *badgerBatch) ReadReceipt(traceId string) (*runtime.Receipt, error) {
	return b.bs.readReceipt(b.txn, traceId)
}

func (b *badgerBatch) WriteReceipt(r *runtime.Receipt) error {
	return b.bs.writeReceipt(b.txn, r)
}
