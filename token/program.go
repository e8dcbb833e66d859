package token

import (
	"bytes"
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/gagliardetto/solana-go"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"github.com/near/borsh-go"
)

// Program is the subset of the token-2022 program used for placeholder
// collectibles: mint extensions, inline metadata, mint and authority changes.
type Program struct{}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) ProgramID() solana.PublicKey {
	return ProgramID
}

func (p *Program) Process(ctx context.Context, ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	if len(ix.Data) == 0 {
		return ErrInvalidInstruction
	}
	if len(ix.Data) >= 8 {
		switch {
		case bytes.Equal(ix.Data[:8], metadataInitializeDiscriminator):
			return p.initializeMetadata(ic, ix)
		case bytes.Equal(ix.Data[:8], metadataUpdateFieldDiscriminator):
			return p.updateMetadataField(ic, ix)
		}
	}

	logger.Verbosef("token.Process(%d, %d)\n", ix.Data[0], len(ix.Data))
	switch ix.Data[0] {
	case InstructionInitializePermanentDelegate:
		var args permanentDelegateArgs
		err := decodeArgs(ix.Data, &args)
		if err != nil {
			return err
		}
		return p.initializeMintExtension(ic, ix, ExtensionPermanentDelegate, args.Delegate[:])
	case InstructionInitializeMintCloseAuthority:
		var args closeAuthorityArgs
		err := decodeArgs(ix.Data, &args)
		if err != nil {
			return err
		}
		val := make([]byte, 32)
		if args.Authority != nil {
			copy(val, args.Authority[:])
		}
		return p.initializeMintExtension(ic, ix, ExtensionMintCloseAuthority, val)
	case InstructionMetadataPointerExtension:
		var args metadataPointerArgs
		err := decodeArgs(ix.Data, &args)
		if err != nil {
			return err
		}
		if args.Sub != metadataPointerInitialize {
			return fmt.Errorf("%w: metadata pointer %d", ErrInvalidInstruction, args.Sub)
		}
		val := append(args.Authority.Bytes(), args.MetadataAddress.Bytes()...)
		return p.initializeMintExtension(ic, ix, ExtensionMetadataPointer, val)
	case InstructionInitializeImmutableOwner:
		return p.initializeImmutableOwner(ic, ix)
	}

	inst, err := spltoken.DecodeInstruction(ix.Accounts, ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	switch args := inst.Impl.(type) {
	case *spltoken.InitializeMint2:
		return p.initializeMint2(ic, ix, args)
	case *spltoken.InitializeAccount3:
		return p.initializeAccount3(ic, ix, args)
	case *spltoken.MintTo:
		return p.mintTo(ic, ix, *args.Amount)
	case *spltoken.SetAuthority:
		return p.setAuthority(ic, ix, args)
	}
	return fmt.Errorf("%w: %s", ErrInvalidInstruction, spltoken.InstructionIDToName(inst.TypeID.Uint8()))
}

func decodeArgs(data []byte, v interface{}) error {
	err := borsh.Deserialize(v, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	return nil
}

func (p *Program) readOwned(ic *runtime.InvokeContext, ix *runtime.Instruction, i int) (*runtime.Account, error) {
	key, ok := ix.Account(i)
	if !ok {
		return nil, fmt.Errorf("%w: missing account %d", ErrInvalidInstruction, i)
	}
	acc, err := ic.ReadAccount(key)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrAccountNotFound, key)
	}
	if acc.Owner != ProgramID {
		return nil, fmt.Errorf("%w: %s", ErrIncorrectProgramId, key)
	}
	return acc, nil
}

func (p *Program) readMint(ic *runtime.InvokeContext, ix *runtime.Instruction, i int) (*runtime.Account, *Mint, error) {
	acc, err := p.readOwned(ic, ix, i)
	if err != nil {
		return nil, nil, err
	}
	m, err := UnpackMint(acc.Data)
	return acc, m, err
}

func (p *Program) writeMint(ic *runtime.InvokeContext, acc *runtime.Account, m *Mint) error {
	err := m.Pack(acc.Data)
	if err != nil {
		return err
	}
	return ic.WriteAccount(acc)
}

func (p *Program) checkSigner(ic *runtime.InvokeContext, expected, actual solana.PublicKey) error {
	if expected != actual {
		return fmt.Errorf("%w: expected %s got %s", ErrOwnerMismatch, expected, actual)
	}
	if !ic.IsSigner(actual) {
		return fmt.Errorf("%w: %s", runtime.ErrMissingRequiredSignature, actual)
	}
	return nil
}

func (p *Program) initializeMintExtension(ic *runtime.InvokeContext, ix *runtime.Instruction, ext ExtensionType, val []byte) error {
	acc, m, err := p.readMint(ic, ix, 0)
	if err != nil {
		return err
	}
	if m.IsInitialized {
		return fmt.Errorf("%w: mint %s", ErrAlreadyInUse, acc.Address)
	}
	if m.HasExtension(ext) {
		return fmt.Errorf("%w: %d", ErrExtensionAlreadyInitialized, ext)
	}
	buf := make([]byte, len(val))
	copy(buf, val)
	m.setExtension(ext, buf)
	return p.writeMint(ic, acc, m)
}

func (p *Program) initializeMint2(ic *runtime.InvokeContext, ix *runtime.Instruction, args *spltoken.InitializeMint2) error {
	if args.Decimals == nil || args.MintAuthority == nil {
		return ErrInvalidInstruction
	}
	acc, m, err := p.readMint(ic, ix, 0)
	if err != nil {
		return err
	}
	if m.IsInitialized {
		return fmt.Errorf("%w: mint %s", ErrAlreadyInUse, acc.Address)
	}
	m.Decimals = *args.Decimals
	m.MintAuthority = args.MintAuthority
	m.FreezeAuthority = args.FreezeAuthority
	m.IsInitialized = true
	return p.writeMint(ic, acc, m)
}

// metadata lives in the mint itself, the account grows with every write and
// its balance must already cover the larger size
func (p *Program) initializeMetadata(ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	var args initializeMetadataArgs
	err := decodeArgs(ix.Data[8:], &args)
	if err != nil {
		return err
	}
	updateAuthority, ok1 := ix.Account(1)
	mintKey, ok2 := ix.Account(2)
	mintAuthority, ok3 := ix.Account(3)
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("%w: initialize metadata accounts", ErrInvalidInstruction)
	}
	acc, m, err := p.readMint(ic, ix, 0)
	if err != nil {
		return err
	}
	if acc.Address != mintKey {
		return fmt.Errorf("%w: metadata outside of the mint", ErrInvalidAccountData)
	}
	if !m.IsInitialized {
		return fmt.Errorf("%w: mint %s", ErrUninitializedState, mintKey)
	}
	if m.MintAuthority == nil {
		return ErrFixedSupply
	}
	err = p.checkSigner(ic, *m.MintAuthority, mintAuthority)
	if err != nil {
		return err
	}
	mp, ok := m.MetadataPointer()
	if !ok || mp.MetadataAddress != acc.Address {
		return fmt.Errorf("%w: metadata pointer of %s", ErrExtensionNotFound, acc.Address)
	}
	if m.HasExtension(ExtensionTokenMetadata) {
		return fmt.Errorf("%w: %d", ErrExtensionAlreadyInitialized, ExtensionTokenMetadata)
	}
	err = m.setMetadata(&TokenMetadata{
		UpdateAuthority: updateAuthority,
		Mint:            mintKey,
		Name:            args.Name,
		Symbol:          args.Symbol,
		Uri:             args.Uri,
	})
	if err != nil {
		return err
	}
	acc.Resize(m.PackedLen())
	return p.writeMint(ic, acc, m)
}

func (p *Program) updateMetadataField(ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	var args updateFieldArgs
	err := decodeArgs(ix.Data[8:], &args)
	if err != nil {
		return err
	}
	authority, ok := ix.Account(1)
	if !ok {
		return fmt.Errorf("%w: update field accounts", ErrInvalidInstruction)
	}

	acc, m, err := p.readMint(ic, ix, 0)
	if err != nil {
		return err
	}
	md, err := m.Metadata()
	if err != nil {
		return err
	}
	if md.UpdateAuthority.IsZero() {
		return fmt.Errorf("%w: metadata is immutable", ErrOwnerMismatch)
	}
	err = p.checkSigner(ic, md.UpdateAuthority, authority)
	if err != nil {
		return err
	}
	md.update(args.Field, args.Value)
	err = m.setMetadata(md)
	if err != nil {
		return err
	}
	acc.Resize(m.PackedLen())
	return p.writeMint(ic, acc, m)
}

func (p *Program) initializeImmutableOwner(ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	acc, err := p.readOwned(ic, ix, 0)
	if err != nil {
		return err
	}
	a, err := UnpackAccount(acc.Data)
	if err != nil {
		return err
	}
	if a.State != spltoken.Uninitialized {
		return fmt.Errorf("%w: account %s", ErrAlreadyInUse, acc.Address)
	}
	if a.HasExtension(ExtensionImmutableOwner) {
		return fmt.Errorf("%w: %d", ErrExtensionAlreadyInitialized, ExtensionImmutableOwner)
	}
	a.setExtension(ExtensionImmutableOwner, []byte{})
	err = a.Pack(acc.Data)
	if err != nil {
		return err
	}
	return ic.WriteAccount(acc)
}

func (p *Program) initializeAccount3(ic *runtime.InvokeContext, ix *runtime.Instruction, args *spltoken.InitializeAccount3) error {
	if args.Owner == nil {
		return ErrInvalidInstruction
	}
	owner := *args.Owner
	acc, err := p.readOwned(ic, ix, 0)
	if err != nil {
		return err
	}
	_, m, err := p.readMint(ic, ix, 1)
	if err != nil {
		return err
	}
	if !m.IsInitialized {
		return fmt.Errorf("%w: mint of %s", ErrUninitializedState, acc.Address)
	}
	a, err := UnpackAccount(acc.Data)
	if err != nil {
		return err
	}
	if a.State != spltoken.Uninitialized {
		return fmt.Errorf("%w: account %s", ErrAlreadyInUse, acc.Address)
	}
	a.Mint, _ = ix.Account(1)
	a.Owner = owner
	a.State = spltoken.Initialized
	err = a.Pack(acc.Data)
	if err != nil {
		return err
	}
	return ic.WriteAccount(acc)
}

func (p *Program) mintTo(ic *runtime.InvokeContext, ix *runtime.Instruction, amount uint64) error {
	authority, ok := ix.Account(2)
	if !ok {
		return fmt.Errorf("%w: mint to accounts", ErrInvalidInstruction)
	}
	macc, m, err := p.readMint(ic, ix, 0)
	if err != nil {
		return err
	}
	if !m.IsInitialized {
		return fmt.Errorf("%w: mint %s", ErrUninitializedState, macc.Address)
	}
	if m.MintAuthority == nil {
		return ErrFixedSupply
	}
	err = p.checkSigner(ic, *m.MintAuthority, authority)
	if err != nil {
		return err
	}
	dacc, err := p.readOwned(ic, ix, 1)
	if err != nil {
		return err
	}
	a, err := UnpackAccount(dacc.Data)
	if err != nil {
		return err
	}
	if a.State == spltoken.Uninitialized {
		return fmt.Errorf("%w: account %s", ErrUninitializedState, dacc.Address)
	}
	if a.Mint != macc.Address {
		return fmt.Errorf("%w: %s", ErrMintMismatch, dacc.Address)
	}
	if a.Amount+amount < a.Amount || m.Supply+amount < m.Supply {
		return ErrOverflow
	}
	a.Amount += amount
	m.Supply += amount
	err = a.Pack(dacc.Data)
	if err != nil {
		return err
	}
	err = ic.WriteAccount(dacc)
	if err != nil {
		return err
	}
	return p.writeMint(ic, macc, m)
}

func (p *Program) setAuthority(ic *runtime.InvokeContext, ix *runtime.Instruction, args *spltoken.SetAuthority) error {
	if args.AuthorityType == nil {
		return ErrInvalidInstruction
	}
	switch *args.AuthorityType {
	case AuthorityMintTokens:
	case spltoken.AuthorityAccountOwner:
		return p.setAccountOwner(ic, ix)
	default:
		return fmt.Errorf("%w: %d", ErrAuthorityTypeNotSupported, *args.AuthorityType)
	}
	current, ok := ix.Account(1)
	if !ok {
		return fmt.Errorf("%w: set authority accounts", ErrInvalidInstruction)
	}
	acc, m, err := p.readMint(ic, ix, 0)
	if err != nil {
		return err
	}
	if !m.IsInitialized {
		return fmt.Errorf("%w: mint %s", ErrUninitializedState, acc.Address)
	}
	if m.MintAuthority == nil {
		return ErrFixedSupply
	}
	err = p.checkSigner(ic, *m.MintAuthority, current)
	if err != nil {
		return err
	}
	m.MintAuthority = args.NewAuthority
	return p.writeMint(ic, acc, m)
}

// associated accounts carry the immutable owner extension, other owner
// changes are not supported
func (p *Program) setAccountOwner(ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	acc, err := p.readOwned(ic, ix, 0)
	if err != nil {
		return err
	}
	a, err := UnpackAccount(acc.Data)
	if err != nil {
		return err
	}
	if a.State == spltoken.Uninitialized {
		return fmt.Errorf("%w: account %s", ErrUninitializedState, acc.Address)
	}
	if a.HasExtension(ExtensionImmutableOwner) {
		return fmt.Errorf("%w: %s", ErrImmutableOwner, acc.Address)
	}
	return fmt.Errorf("%w: %d", ErrAuthorityTypeNotSupported, spltoken.AuthorityAccountOwner)
}

// Balance reads the amount held by a token account of this program.
func Balance(acc *runtime.Account) (uint64, error) {
	if acc == nil {
		return 0, runtime.ErrAccountNotFound
	}
	if acc.Owner != ProgramID {
		return 0, fmt.Errorf("%w: %s", ErrIncorrectProgramId, acc.Address)
	}
	a, err := UnpackAccount(acc.Data)
	if err != nil {
		return 0, err
	}
	if a.State == spltoken.Uninitialized {
		return 0, fmt.Errorf("%w: account %s", ErrUninitializedState, acc.Address)
	}
	return a.Amount, nil
}
