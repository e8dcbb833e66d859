package runtime

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gofrs/uuid"
	"github.com/near/borsh-go"
)

const (
	TransactionStateInitial = 10
	TransactionStateDone    = 11
	TransactionStateFailed  = 12
)

type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []*solana.AccountMeta
	Data      []byte
}

func NewInstruction(programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) *Instruction {
	return &Instruction{
		ProgramID: programID,
		Accounts:  accounts,
		Data:      data,
	}
}

// Account returns the key at position i of the instruction account list.
func (ix *Instruction) Account(i int) (solana.PublicKey, bool) {
	if i < 0 || i >= len(ix.Accounts) || ix.Accounts[i] == nil {
		return solana.PublicKey{}, false
	}
	return ix.Accounts[i].PublicKey, true
}

type Transaction struct {
	TraceId      string
	FeePayer     solana.PublicKey
	Instructions []*Instruction
	Signatures   []solana.Signature
	State        int
	UpdatedAt    time.Time
}

type message struct {
	TraceId      string
	FeePayer     solana.PublicKey
	Instructions []*Instruction
}

// the caller decides a unique trace id, the runtime commits each trace id once
func NewTransaction(traceId string, feePayer solana.PublicKey, ixs ...*Instruction) (*Transaction, error) {
	id, err := uuid.FromString(traceId)
	if err != nil || id == uuid.Nil {
		return nil, fmt.Errorf("invalid trace id %s", traceId)
	}
	if len(ixs) == 0 {
		return nil, fmt.Errorf("empty transaction %s", traceId)
	}
	for i, ix := range ixs {
		if ix == nil {
			return nil, fmt.Errorf("nil instruction %d", i)
		}
	}
	return &Transaction{
		TraceId:      id.String(),
		FeePayer:     feePayer,
		Instructions: ixs,
		State:        TransactionStateInitial,
		UpdatedAt:    time.Now(),
	}, nil
}

func (tx *Transaction) Message() []byte {
	msg, err := borsh.Serialize(message{
		TraceId:      tx.TraceId,
		FeePayer:     tx.FeePayer,
		Instructions: tx.Instructions,
	})
	if err != nil {
		panic(err)
	}
	return msg
}

// Signers lists the fee payer first, then every signer account in order of
// appearance, without duplicates.
func (tx *Transaction) Signers() []solana.PublicKey {
	signers := []solana.PublicKey{tx.FeePayer}
	seen := map[solana.PublicKey]bool{tx.FeePayer: true}
	for _, ix := range tx.Instructions {
		for _, am := range ix.Accounts {
			if am == nil || !am.IsSigner || seen[am.PublicKey] {
				continue
			}
			seen[am.PublicKey] = true
			signers = append(signers, am.PublicKey)
		}
	}
	return signers
}

func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	signers := tx.Signers()
	if len(tx.Signatures) != len(signers) {
		tx.Signatures = make([]solana.Signature, len(signers))
	}
	msg := tx.Message()
	for _, key := range keys {
		pub := key.PublicKey()
		index := -1
		for i, s := range signers {
			if s == pub {
				index = i
			}
		}
		if index < 0 {
			return fmt.Errorf("key %s is not a signer of %s", pub, tx.TraceId)
		}
		sig, err := key.Sign(msg)
		if err != nil {
			return err
		}
		tx.Signatures[index] = sig
	}
	return nil
}

func (tx *Transaction) Verify() error {
	signers := tx.Signers()
	if len(tx.Signatures) != len(signers) {
		return fmt.Errorf("transaction %s has %d signatures for %d signers", tx.TraceId, len(tx.Signatures), len(signers))
	}
	msg := tx.Message()
	for i, s := range signers {
		if !tx.Signatures[i].Verify(s, msg) {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, s)
		}
	}
	return nil
}

// Receipt records the outcome of a trace id. A done receipt is written in the
// same batch as the transaction effects.
type Receipt struct {
	TraceId   string
	State     int
	Error     string
	CreatedAt time.Time
}
