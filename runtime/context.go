package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
)

const MaxInvokeDepth = 4

var ErrCallDepth = errors.New("cross-program invocation call depth too deep")

// InvokeContext is the view a program gets of the transaction while one of
// its instructions runs. Nested invocations share the batch of the parent.
type InvokeContext struct {
	rt        *Runtime
	batch     Batch
	tx        *Transaction
	index     int
	now       time.Time
	programID solana.PublicKey
	caller    solana.PublicKey
	signers   map[solana.PublicKey]bool
	depth     int
}

func (rt *Runtime) newInvokeContext(batch Batch, tx *Transaction, index int, now time.Time) *InvokeContext {
	signers := make(map[solana.PublicKey]bool)
	for _, s := range tx.Signers() {
		signers[s] = true
	}
	return &InvokeContext{
		rt:        rt,
		batch:     batch,
		tx:        tx,
		index:     index,
		now:       now,
		programID: tx.Instructions[index].ProgramID,
		signers:   signers,
	}
}

func (ic *InvokeContext) ProgramID() solana.PublicKey {
	return ic.programID
}

func (ic *InvokeContext) TraceId() string {
	return ic.tx.TraceId
}

// CurrentIndex is the position of the top level instruction being processed.
func (ic *InvokeContext) CurrentIndex() uint16 {
	return uint16(ic.index)
}

func (ic *InvokeContext) InstructionAt(k int) (*Instruction, error) {
	if k < 0 || k >= len(ic.tx.Instructions) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidInstructionIndex, k, len(ic.tx.Instructions))
	}
	return ic.tx.Instructions[k], nil
}

func (ic *InvokeContext) UnixTimestamp() int64 {
	return ic.now.Unix()
}

func (ic *InvokeContext) Rent() Rent {
	return ic.rt.rent
}

// ReadAccount returns a copy the caller may change freely, or nil when the
// account does not exist.
func (ic *InvokeContext) ReadAccount(key solana.PublicKey) (*Account, error) {
	acc, err := ic.batch.ReadAccount(key)
	if err != nil || acc == nil {
		return nil, err
	}
	return acc.Copy(), nil
}

// WriteAccount stores an account owned by the running program. Lamports only
// move through the system program.
func (ic *InvokeContext) WriteAccount(acc *Account) error {
	old, err := ic.batch.ReadAccount(acc.Address)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, acc.Address)
	}
	if old.Owner != ic.programID || acc.Owner != ic.programID {
		return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountModified, acc.Address, old.Owner)
	}
	if old.Lamports != acc.Lamports {
		return fmt.Errorf("%w: lamports of %s", ErrExternalAccountModified, acc.Address)
	}
	if len(acc.Data) > 0 && !ic.rt.rent.IsExempt(acc.Lamports, len(acc.Data)) {
		return fmt.Errorf("%w: %s needs %d has %d", ErrInsufficientFundsForRent,
			acc.Address, ic.rt.rent.MinimumBalance(len(acc.Data)), acc.Lamports)
	}
	if bytes.Equal(old.Data, acc.Data) {
		return nil
	}
	return ic.batch.WriteAccount(acc.Copy())
}

func (ic *InvokeContext) IsSigner(key solana.PublicKey) bool {
	return ic.signers[key]
}

// VerifySigner checks a capability presented by the running program. A
// derived signer must derive from the running program.
func (ic *InvokeContext) VerifySigner(s Signer) error {
	if !s.derived {
		if !ic.signers[s.Key] {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, s.Key)
		}
		return nil
	}
	if s.Program != ic.programID {
		return fmt.Errorf("%w: %s derived from %s", ErrInvalidSeeds, s.Key, s.Program)
	}
	key, err := solana.CreateProgramAddress(s.SignerSeeds(), s.Program)
	if err != nil || key != s.Key {
		return fmt.Errorf("%w: %s", ErrInvalidSeeds, s.Key)
	}
	return nil
}

// Invoke runs ix in another program. The child sees the transaction signers
// plus the derived signers of the caller.
func (ic *InvokeContext) Invoke(ctx context.Context, ix *Instruction, signers ...Signer) error {
	if ic.depth+1 >= MaxInvokeDepth {
		return ErrCallDepth
	}
	child := &InvokeContext{
		rt:        ic.rt,
		batch:     ic.batch,
		tx:        ic.tx,
		index:     ic.index,
		now:       ic.now,
		programID: ix.ProgramID,
		caller:    ic.programID,
		signers:   make(map[solana.PublicKey]bool),
		depth:     ic.depth + 1,
	}
	for k := range ic.signers {
		child.signers[k] = true
	}
	for _, s := range signers {
		err := ic.VerifySigner(s)
		if err != nil {
			return err
		}
		child.signers[s.Key] = true
	}
	logger.Verbosef("InvokeContext.Invoke(%s, %s, %d)\n", ic.programID, ix.ProgramID, child.depth)
	return ic.rt.process(ctx, child, ix)
}

// CreateAccount allocates space owned by owner, funded by payer. Both the
// payer and the new account must be able to sign.
func (ic *InvokeContext) CreateAccount(ctx context.Context, payer, account Signer, lamports uint64, space int, owner solana.PublicKey) error {
	ix := NewCreateAccountInstruction(payer.Key, account.Key, lamports, uint64(space), owner)
	return ic.Invoke(ctx, ix, payer, account)
}
