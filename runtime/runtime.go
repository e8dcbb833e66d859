package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/sasha-s/go-deadlock"
)

type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// Runtime processes transactions one at a time, each one inside a single
// store batch.
type Runtime struct {
	store    Store
	clock    *Clock
	rent     Rent
	conf     *Configuration
	programs map[solana.PublicKey]Program
	mutex    deadlock.Mutex
}

func BuildRuntime(ctx context.Context, store Store, conf *Configuration) (*Runtime, error) {
	if conf == nil {
		conf = &Configuration{}
	}
	rent, err := NewRent(conf)
	if err != nil {
		return nil, err
	}
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		store:    store,
		clock:    clock,
		rent:     rent,
		conf:     conf,
		programs: make(map[solana.PublicKey]Program),
	}
	rt.AddProgram(systemProgram{})
	rt.AddProgram(ed25519Program{})
	return rt, nil
}

func (rt *Runtime) AddProgram(p Program) {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	rt.programs[p.ProgramID()] = p
}

func (rt *Runtime) Rent() Rent {
	return rt.rent
}

func (rt *Runtime) ReadAccount(key solana.PublicKey) (*Account, error) {
	return rt.store.ReadAccount(key)
}

func (rt *Runtime) ReadReceipt(traceId string) (*Receipt, error) {
	return rt.store.ReadReceipt(traceId)
}

// Fund credits a system account outside of any transaction, for genesis.
func (rt *Runtime) Fund(key solana.PublicKey, lamports uint64) error {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	return rt.store.Update(func(b Batch) error {
		acc, err := b.ReadAccount(key)
		if err != nil {
			return err
		}
		if acc == nil {
			acc = &Account{Address: key, Owner: solana.SystemProgramID}
		}
		if acc.Owner != solana.SystemProgramID {
			return fmt.Errorf("%w: fund %s owned by %s", ErrExternalAccountModified, key, acc.Owner)
		}
		acc.Lamports += lamports
		return b.WriteAccount(acc)
	})
}

// ProcessTransaction commits every effect of tx or none of them. A trace id
// is accepted at most once, failed transactions included.
func (rt *Runtime) ProcessTransaction(ctx context.Context, tx *Transaction) error {
	err := tx.Verify()
	if err != nil {
		return err
	}

	rt.mutex.Lock()
	defer rt.mutex.Unlock()

	now := rt.clock.Now()
	err = rt.store.Update(func(b Batch) error {
		old, err := b.ReadReceipt(tx.TraceId)
		if err != nil {
			return err
		}
		if old != nil {
			return fmt.Errorf("%w: %s", ErrTransactionAlreadyCommited, tx.TraceId)
		}
		for i, ix := range tx.Instructions {
			ic := rt.newInvokeContext(b, tx, i, now)
			err := rt.process(ctx, ic, ix)
			if err != nil {
				return &InstructionError{Index: i, Err: err}
			}
		}
		return b.WriteReceipt(&Receipt{
			TraceId:   tx.TraceId,
			State:     TransactionStateDone,
			CreatedAt: now,
		})
	})
	if err == nil || errors.Is(err, ErrTransactionAlreadyCommited) {
		return err
	}

	logger.Printf("Runtime.ProcessTransaction(%s) => %v\n", tx.TraceId, err)
	werr := rt.store.Update(func(b Batch) error {
		return b.WriteReceipt(&Receipt{
			TraceId:   tx.TraceId,
			State:     TransactionStateFailed,
			Error:     err.Error(),
			CreatedAt: now,
		})
	})
	if werr != nil {
		logger.Printf("Runtime.WriteReceipt(%s) => %v\n", tx.TraceId, werr)
	}
	return err
}

func (rt *Runtime) process(ctx context.Context, ic *InvokeContext, ix *Instruction) error {
	p := rt.programs[ix.ProgramID]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedProgram, ix.ProgramID)
	}
	for _, am := range ix.Accounts {
		if am != nil && am.IsSigner && !ic.IsSigner(am.PublicKey) {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, am.PublicKey)
		}
	}
	logger.Verbosef("Runtime.process(%s, %d, %d)\n", ix.ProgramID, ic.index, ic.depth)
	return p.Process(ctx, ic, ix)
}
