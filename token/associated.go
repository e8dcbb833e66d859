package token

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/gagliardetto/solana-go"
)

var AssociatedProgramID = solana.SPLAssociatedTokenAccountProgramID

const (
	AssociatedInstructionCreate           = 0
	AssociatedInstructionCreateIdempotent = 1
)

// AssociatedAccountSize is a token account with the immutable owner extension.
var AssociatedAccountSize = AccountSize(ExtensionImmutableOwner)

func FindAssociatedAddress(wallet, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		wallet[:],
		ProgramID[:],
		mint[:],
	}, AssociatedProgramID)
}

func NewCreateAssociatedAccountInstruction(payer, wallet, mint solana.PublicKey, idempotent bool) (*runtime.Instruction, error) {
	ata, _, err := FindAssociatedAddress(wallet, mint)
	if err != nil {
		return nil, err
	}
	tag := byte(AssociatedInstructionCreate)
	if idempotent {
		tag = AssociatedInstructionCreateIdempotent
	}
	return runtime.NewInstruction(AssociatedProgramID, []*solana.AccountMeta{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(ata).WRITE(),
		solana.Meta(wallet),
		solana.Meta(mint),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(ProgramID),
	}, []byte{tag}), nil
}

type AssociatedProgram struct{}

func NewAssociatedProgram() *AssociatedProgram {
	return &AssociatedProgram{}
}

func (p *AssociatedProgram) ProgramID() solana.PublicKey {
	return AssociatedProgramID
}

func (p *AssociatedProgram) Process(ctx context.Context, ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	idempotent := false
	switch {
	case len(ix.Data) == 0 || ix.Data[0] == AssociatedInstructionCreate:
	case ix.Data[0] == AssociatedInstructionCreateIdempotent:
		idempotent = true
	default:
		return fmt.Errorf("%w: associated tag %d", ErrInvalidInstruction, ix.Data[0])
	}
	if len(ix.Accounts) < 6 {
		return fmt.Errorf("%w: associated accounts %d", ErrInvalidInstruction, len(ix.Accounts))
	}
	payer, _ := ix.Account(0)
	key, _ := ix.Account(1)
	wallet, _ := ix.Account(2)
	mint, _ := ix.Account(3)
	tokenProgram, _ := ix.Account(5)
	if tokenProgram != ProgramID {
		return fmt.Errorf("%w: %s", ErrIncorrectProgramId, tokenProgram)
	}

	ata, err := runtime.DeriveSigner(AssociatedProgramID, wallet[:], tokenProgram[:], mint[:])
	if err != nil {
		return err
	}
	if ata.Key != key {
		return fmt.Errorf("%w: %s", ErrInvalidAssociatedAddress, key)
	}

	old, err := ic.ReadAccount(key)
	if err != nil {
		return err
	}
	if old != nil && old.Owner == ProgramID {
		if !idempotent {
			return fmt.Errorf("%w: %s", ErrAlreadyInUse, key)
		}
		a, err := UnpackAccount(old.Data)
		if err != nil {
			return err
		}
		if a.Owner != wallet {
			return fmt.Errorf("%w: %s", ErrOwnerMismatch, key)
		}
		if a.Mint != mint {
			return fmt.Errorf("%w: %s", ErrMintMismatch, key)
		}
		return nil
	}

	logger.Verbosef("AssociatedProgram.Create(%s, %s, %s)\n", wallet, mint, key)
	lamports := ic.Rent().MinimumBalance(AssociatedAccountSize)
	err = ic.CreateAccount(ctx, runtime.KeySigner(payer), ata, lamports, AssociatedAccountSize, ProgramID)
	if err != nil {
		return err
	}
	err = ic.Invoke(ctx, NewInitializeImmutableOwnerInstruction(key))
	if err != nil {
		return err
	}
	return ic.Invoke(ctx, NewInitializeAccount3Instruction(key, mint, wallet))
}
