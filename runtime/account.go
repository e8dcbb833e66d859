package runtime

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountAlreadyInUse        = errors.New("account already in use")
	ErrAccountNotFound            = errors.New("account not found")
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInsufficientFundsForRent   = errors.New("insufficient funds for rent")
	ErrExternalAccountModified    = errors.New("instruction modified data of an account it does not own")
	ErrMissingRequiredSignature   = errors.New("missing required signature for instruction")
	ErrInvalidSeeds               = errors.New("provided seeds do not result in a valid address")
	ErrInvalidInstructionIndex    = errors.New("instruction index out of range")
	ErrInvalidInstructionData     = errors.New("invalid instruction data")
	ErrUnsupportedProgram         = errors.New("unsupported program id")
	ErrTransactionAlreadyCommited = errors.New("transaction already processed")
)

type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

func (acc *Account) Copy() *Account {
	data := make([]byte, len(acc.Data))
	copy(data, acc.Data)
	return &Account{
		Address:  acc.Address,
		Owner:    acc.Owner,
		Lamports: acc.Lamports,
		Data:     data,
	}
}

// Resize grows or shrinks the account data, keeping the existing prefix.
func (acc *Account) Resize(size int) {
	if size <= len(acc.Data) {
		acc.Data = acc.Data[:size]
		return
	}
	data := make([]byte, size)
	copy(data, acc.Data)
	acc.Data = data
}
