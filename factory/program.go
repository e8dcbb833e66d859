package factory

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// Program issues placeholder collectibles and airdrops them on the
// approval of the admin wallet.
type Program struct {
	programID   solana.PublicKey
	adminWallet solana.PublicKey
	auth        runtime.Signer
	handlers    map[string]handler
}

// NewProgram derives the authority capability once, every mint and metadata
// operation of the program is signed with it.
func NewProgram(programID, adminWallet solana.PublicKey) (*Program, error) {
	auth, err := deriveSigner(programID, SeedAuth)
	if err != nil {
		return nil, err
	}
	p := &Program{
		programID:   programID,
		adminWallet: adminWallet,
		auth:        auth,
		handlers:    make(map[string]handler),
	}
	for name, h := range map[string]handler{
		InstructionInitializeProtocol: p.initializeProtocol,
		InstructionLockProtocol:       p.lockProtocol,
		InstructionUnlockProtocol:     p.unlockProtocol,
		InstructionInitializeAdmin:    p.initializeAdmin,
		InstructionCreateCollection:   p.createCollection,
		InstructionCreatePlaceholder:  p.createPlaceholder,
		InstructionAirdropPlaceholder: p.airdropPlaceholder,
	} {
		p.handlers[string(InstructionDiscriminator(name))] = h
	}
	return p, nil
}

func (p *Program) ProgramID() solana.PublicKey {
	return p.programID
}

func (p *Program) Auth() solana.PublicKey {
	return p.auth.Key
}

type handler func(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error

func (p *Program) Process(ctx context.Context, ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	if len(ix.Data) < DiscriminatorSize {
		return ErrInstructionFallbackNotFound
	}
	h := p.handlers[string(ix.Data[:DiscriminatorSize])]
	if h == nil {
		return ErrInstructionFallbackNotFound
	}
	logger.Verbosef("factory.Process(%x, %s, %d)\n", ix.Data[:DiscriminatorSize], ic.TraceId(), ic.CurrentIndex())
	accs := &accounts{ic: ic, ix: ix}
	return h(ctx, ic, accs, ix.Data[DiscriminatorSize:])
}

func decodeArgs(data []byte, v interface{}) error {
	err := borsh.Deserialize(v, data)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	return nil
}

// accounts hands out the instruction accounts in order.
type accounts struct {
	ic *runtime.InvokeContext
	ix *runtime.Instruction
	i  int
}

func (a *accounts) next() (solana.PublicKey, error) {
	key, ok := a.ix.Account(a.i)
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: %d", ErrAccountNotEnoughKeys, a.i)
	}
	a.i++
	return key, nil
}

func (a *accounts) signer() (solana.PublicKey, error) {
	key, err := a.next()
	if err != nil {
		return key, err
	}
	if !a.ic.IsSigner(key) {
		return key, fmt.Errorf("%w: %s", ErrAccountNotSigner, key)
	}
	return key, nil
}

// address takes the next account and requires it to be expected.
func (a *accounts) address(expected solana.PublicKey) (solana.PublicKey, error) {
	key, err := a.next()
	if err != nil {
		return key, err
	}
	if key != expected {
		return key, fmt.Errorf("%w: expected %s got %s", ErrConstraintAddress, expected, key)
	}
	return key, nil
}

func (a *accounts) program(expected solana.PublicKey) (solana.PublicKey, error) {
	key, err := a.next()
	if err != nil {
		return key, err
	}
	if key != expected {
		return key, fmt.Errorf("%w: expected %s got %s", ErrInvalidProgramId, expected, key)
	}
	return key, nil
}

// seeds takes the next account and requires it to be the derived address.
func (a *accounts) seeds(programID solana.PublicKey, label string, parents ...[]byte) (solana.PublicKey, error) {
	key, err := a.next()
	if err != nil {
		return key, err
	}
	return key, requireSeeds(key, programID, label, parents...)
}

func requireSeeds(key, programID solana.PublicKey, label string, parents ...[]byte) error {
	expected, _, err := Derive(programID, label, parents...)
	if err != nil {
		return err
	}
	if key != expected {
		return fmt.Errorf("%w: %s expected %s got %s", ErrConstraintSeeds, label, expected, key)
	}
	return nil
}

// loadRecord reads an initialized record owned by the program.
func (p *Program) loadRecord(ic *runtime.InvokeContext, key solana.PublicKey, v interface{}) (*runtime.Account, error) {
	acc, err := ic.ReadAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil || len(acc.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotInitialized, key)
	}
	if acc.Owner != p.programID {
		return nil, fmt.Errorf("%w: %s", ErrAccountOwnedByWrongProgram, key)
	}
	err = DecodeRecord(acc.Data, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, key)
	}
	return acc, nil
}

func (p *Program) storeRecord(ic *runtime.InvokeContext, acc *runtime.Account, v interface{}) error {
	data, err := EncodeRecord(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAccountDidNotSerialize, err)
	}
	if len(data) > len(acc.Data) {
		return fmt.Errorf("%w: %d > %d", ErrAccountDidNotSerialize, len(data), len(acc.Data))
	}
	copy(acc.Data, data)
	for i := len(data); i < len(acc.Data); i++ {
		acc.Data[i] = 0
	}
	return ic.WriteAccount(acc)
}

// createRecord allocates space for a record at a program address and
// writes it, the payer funds the rent.
func (p *Program) createRecord(ctx context.Context, ic *runtime.InvokeContext, payer solana.PublicKey, account runtime.Signer, space int, v interface{}) error {
	lamports := ic.Rent().MinimumBalance(space)
	err := ic.CreateAccount(ctx, runtime.KeySigner(payer), account, lamports, space, p.programID)
	if err != nil {
		return err
	}
	acc, err := ic.ReadAccount(account.Key)
	if err != nil {
		return err
	}
	return p.storeRecord(ic, acc, v)
}

func (p *Program) loadProtocol(ic *runtime.InvokeContext, accs *accounts) (*Protocol, *runtime.Account, error) {
	key, err := accs.seeds(p.programID, SeedProtocol)
	if err != nil {
		return nil, nil, err
	}
	var protocol Protocol
	acc, err := p.loadRecord(ic, key, &protocol)
	return &protocol, acc, err
}

// loadCollection checks the address against the owner stored in the record.
func (p *Program) loadCollection(ic *runtime.InvokeContext, accs *accounts) (*Collection, *runtime.Account, error) {
	key, err := accs.next()
	if err != nil {
		return nil, nil, err
	}
	var c Collection
	acc, err := p.loadRecord(ic, key, &c)
	if err != nil {
		return nil, nil, err
	}
	return &c, acc, requireSeeds(key, p.programID, SeedCollection, c.Owner[:])
}
