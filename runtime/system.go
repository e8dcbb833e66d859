package runtime

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// MaxAccountDataLength caps the space of a single account.
const MaxAccountDataLength = 10 * 1024 * 1024

func NewCreateAccountInstruction(payer, account solana.PublicKey, lamports, space uint64, owner solana.PublicKey) *Instruction {
	return fromSystemProgram(system.NewCreateAccountInstruction(lamports, space, owner, payer, account).Build())
}

func NewTransferInstruction(from, to solana.PublicKey, lamports uint64) *Instruction {
	return fromSystemProgram(system.NewTransferInstruction(lamports, from, to).Build())
}

func fromSystemProgram(inst *system.Instruction) *Instruction {
	data, err := inst.Data()
	if err != nil {
		panic(err)
	}
	return NewInstruction(inst.ProgramID(), inst.Accounts(), data)
}

// systemProgram is native, it moves lamports and assigns fresh accounts
// without the owner checks of InvokeContext.WriteAccount.
type systemProgram struct{}

func (systemProgram) ProgramID() solana.PublicKey {
	return solana.SystemProgramID
}

func (sp systemProgram) Process(ctx context.Context, ic *InvokeContext, ix *Instruction) error {
	inst, err := system.DecodeInstruction(ix.Accounts, ix.Data)
	if err != nil {
		return fmt.Errorf("invalid system instruction data %x: %v", ix.Data, err)
	}
	switch args := inst.Impl.(type) {
	case *system.CreateAccount:
		return sp.createAccount(ic, ix, args)
	case *system.Transfer:
		return sp.transfer(ic, ix, args)
	}
	return fmt.Errorf("unsupported system instruction %s", system.InstructionIDToName(inst.TypeID.Uint32()))
}

func (sp systemProgram) createAccount(ic *InvokeContext, ix *Instruction, args *system.CreateAccount) error {
	payer, ok1 := ix.Account(0)
	key, ok2 := ix.Account(1)
	if !ok1 || !ok2 {
		return fmt.Errorf("create account needs 2 accounts, got %d", len(ix.Accounts))
	}
	if !ic.IsSigner(payer) || !ic.IsSigner(key) {
		return fmt.Errorf("%w: create account %s", ErrMissingRequiredSignature, key)
	}
	lamports, space := *args.Lamports, *args.Space
	if space > MaxAccountDataLength {
		return fmt.Errorf("invalid account space %d", space)
	}
	old, err := ic.batch.ReadAccount(key)
	if err != nil {
		return err
	}
	if old != nil && (old.Lamports > 0 || len(old.Data) > 0) {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, key)
	}
	if !ic.rt.rent.IsExempt(lamports, int(space)) {
		return fmt.Errorf("%w: %s needs %d has %d", ErrInsufficientFundsForRent,
			key, ic.rt.rent.MinimumBalance(int(space)), lamports)
	}
	err = sp.debit(ic, payer, lamports)
	if err != nil {
		return err
	}
	return ic.batch.WriteAccount(&Account{
		Address:  key,
		Owner:    *args.Owner,
		Lamports: lamports,
		Data:     make([]byte, space),
	})
}

func (sp systemProgram) transfer(ic *InvokeContext, ix *Instruction, args *system.Transfer) error {
	from, ok1 := ix.Account(0)
	to, ok2 := ix.Account(1)
	if !ok1 || !ok2 {
		return fmt.Errorf("transfer needs 2 accounts, got %d", len(ix.Accounts))
	}
	if !ic.IsSigner(from) {
		return fmt.Errorf("%w: transfer from %s", ErrMissingRequiredSignature, from)
	}
	err := sp.debit(ic, from, *args.Lamports)
	if err != nil {
		return err
	}
	acc, err := ic.batch.ReadAccount(to)
	if err != nil {
		return err
	}
	if acc == nil {
		acc = &Account{Address: to, Owner: solana.SystemProgramID}
	}
	acc.Lamports += *args.Lamports
	return ic.batch.WriteAccount(acc)
}

func (sp systemProgram) debit(ic *InvokeContext, key solana.PublicKey, lamports uint64) error {
	acc, err := ic.batch.ReadAccount(key)
	if err != nil {
		return err
	}
	if acc == nil || acc.Owner != solana.SystemProgramID || len(acc.Data) > 0 {
		return fmt.Errorf("%w: %s is not a system account", ErrInsufficientFunds, key)
	}
	if acc.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d needs %d", ErrInsufficientFunds, key, acc.Lamports, lamports)
	}
	acc.Lamports -= lamports
	return ic.batch.WriteAccount(acc)
}
