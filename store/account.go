package store

import (
	"github.com/MixinNetwork/mixin/common"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/dgraph-io/badger/v3"
	"github.com/gagliardetto/solana-go"
)

const prefixAccountPayload = "ACCOUNTS:PAYLOAD:"

func (bs *BadgerStore) ReadAccount(key solana.PublicKey) (*runtime.Account, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	return bs.readAccount(txn, key)
}

func (bs *BadgerStore) readAccount(txn *badger.Txn, key solana.PublicKey) (*runtime.Account, error) {
	var acc runtime.Account
	found, err := readPayload(txn, accountKey(key), &acc)
	if err != nil || !found {
		return nil, err
	}
	return &acc, nil
}

func (bs *BadgerStore) writeAccount(txn *badger.Txn, acc *runtime.Account) error {
	return txn.Set(accountKey(acc.Address), common.MsgpackMarshalPanic(acc))
}

func accountKey(key solana.PublicKey) []byte {
	return append([]byte(prefixAccountPayload), key[:]...)
}
