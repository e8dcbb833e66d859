package runtime

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Batch is the read-write view of one transaction. Writes become visible to
// later reads of the same batch and are discarded together on failure.
type Batch interface {
	ReadAccount(key solana.PublicKey) (*Account, error)
	WriteAccount(acc *Account) error
	ReadReceipt(traceId string) (*Receipt, error)
	WriteReceipt(r *Receipt) error
}

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	ReadAccount(key solana.PublicKey) (*Account, error)
	ReadReceipt(traceId string) (*Receipt, error)
	Update(fn func(Batch) error) error

	WriteTransaction(tx *Transaction) error
	ReadTransaction(traceId string) (*Transaction, error)
	ListTransactions(state int, limit int) ([]*Transaction, error)
}

type Program interface {
	ProgramID() solana.PublicKey
	Process(ctx context.Context, ic *InvokeContext, ix *Instruction) error
}
