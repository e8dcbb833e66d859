package store

import (
	"encoding/binary"
	"time"

	"github.com/MixinNetwork/mixin/common"
	"github.com/dgraph-io/badger/v3"
)

func tsToBytes(ts time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ts.UnixNano()))
	return buf
}

// readPayload decodes the msgpack value at key into v, found is false when
// the key is absent.
func readPayload(txn *badger.Txn, key []byte, v interface{}) (bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return common.MsgpackUnmarshal(val, v)
	})
}

// timedKeys walks the ids stored under prefix after an 8-byte timestamp,
// oldest first, until fn returns false.
func timedKeys(txn *badger.Txn, prefix string, fn func(id string) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.Valid(); it.Next() {
		key := it.Item().Key()
		more, err := fn(string(key[len(opts.Prefix)+8:]))
		if err != nil || !more {
			return err
		}
	}
	return nil
}
