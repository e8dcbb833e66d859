package token

import (
	"crypto/sha256"

	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/gagliardetto/solana-go"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"github.com/near/borsh-go"
)

var ProgramID = solana.Token2022ProgramID

// token-2022 only tags, the rest keep the layouts of the token program
const (
	InstructionInitializeImmutableOwner     = 22
	InstructionInitializeMintCloseAuthority = 25
	InstructionInitializePermanentDelegate  = 35
	InstructionMetadataPointerExtension     = 39

	metadataPointerInitialize = 0
)

const AuthorityMintTokens = spltoken.AuthorityMintTokens

var (
	metadataInitializeDiscriminator  = interfaceDiscriminator("spl_token_metadata_interface:initialize_account")
	metadataUpdateFieldDiscriminator = interfaceDiscriminator("spl_token_metadata_interface:updating_field")
)

func interfaceDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte(name))
	return sum[:8]
}

const (
	FieldName borsh.Enum = iota
	FieldSymbol
	FieldUri
	FieldKey
)

type fieldKey struct {
	Name string
}

// Field selects the metadata entry to update, Key names an additional field.
type Field struct {
	Enum   borsh.Enum `borsh_enum:"true"`
	Name   struct{}
	Symbol struct{}
	Uri    struct{}
	Key    fieldKey
}

func KeyField(key string) Field {
	return Field{Enum: FieldKey, Key: fieldKey{Name: key}}
}

type permanentDelegateArgs struct {
	Tag      uint8
	Delegate solana.PublicKey
}

type closeAuthorityArgs struct {
	Tag       uint8
	Authority *solana.PublicKey
}

type metadataPointerArgs struct {
	Tag             uint8
	Sub             uint8
	Authority       solana.PublicKey
	MetadataAddress solana.PublicKey
}

type immutableOwnerArgs struct {
	Tag uint8
}

type initializeMetadataArgs struct {
	Name   string
	Symbol string
	Uri    string
}

type updateFieldArgs struct {
	Field Field
	Value string
}

func encodeArgs(prefix []byte, args interface{}) []byte {
	b, err := borsh.Serialize(args)
	if err != nil {
		panic(err)
	}
	return append(append([]byte{}, prefix...), b...)
}

// fromTokenProgram moves an instruction of the token program onto the
// token-2022 program id, the data and accounts stay the same.
func fromTokenProgram(inst *spltoken.Instruction) *runtime.Instruction {
	data, err := inst.Data()
	if err != nil {
		panic(err)
	}
	return runtime.NewInstruction(ProgramID, inst.Accounts(), data)
}

func NewInitializePermanentDelegateInstruction(mint, delegate solana.PublicKey) *runtime.Instruction {
	data := encodeArgs(nil, permanentDelegateArgs{
		Tag:      InstructionInitializePermanentDelegate,
		Delegate: delegate,
	})
	return runtime.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(mint).WRITE(),
	}, data)
}

func NewInitializeMintCloseAuthorityInstruction(mint solana.PublicKey, authority *solana.PublicKey) *runtime.Instruction {
	data := encodeArgs(nil, closeAuthorityArgs{
		Tag:       InstructionInitializeMintCloseAuthority,
		Authority: authority,
	})
	return runtime.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(mint).WRITE(),
	}, data)
}

func NewInitializeMetadataPointerInstruction(mint solana.PublicKey, authority, metadata solana.PublicKey) *runtime.Instruction {
	data := encodeArgs(nil, metadataPointerArgs{
		Tag:             InstructionMetadataPointerExtension,
		Sub:             metadataPointerInitialize,
		Authority:       authority,
		MetadataAddress: metadata,
	})
	return runtime.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(mint).WRITE(),
	}, data)
}

func NewInitializeMint2Instruction(mint, authority solana.PublicKey, freeze *solana.PublicKey, decimals uint8) *runtime.Instruction {
	b := spltoken.NewInitializeMint2InstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(authority).
		SetMintAccount(mint)
	if freeze != nil {
		b.SetFreezeAuthority(*freeze)
	}
	return fromTokenProgram(b.Build())
}

func NewInitializeMetadataInstruction(metadata, updateAuthority, mint, mintAuthority solana.PublicKey, name, symbol, uri string) *runtime.Instruction {
	data := encodeArgs(metadataInitializeDiscriminator, initializeMetadataArgs{Name: name, Symbol: symbol, Uri: uri})
	return runtime.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(metadata).WRITE(),
		solana.Meta(updateAuthority),
		solana.Meta(mint),
		solana.Meta(mintAuthority).SIGNER(),
	}, data)
}

func NewUpdateFieldInstruction(metadata, updateAuthority solana.PublicKey, field Field, value string) *runtime.Instruction {
	data := encodeArgs(metadataUpdateFieldDiscriminator, updateFieldArgs{Field: field, Value: value})
	return runtime.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(metadata).WRITE(),
		solana.Meta(updateAuthority).SIGNER(),
	}, data)
}

func NewInitializeImmutableOwnerInstruction(account solana.PublicKey) *runtime.Instruction {
	data := encodeArgs(nil, immutableOwnerArgs{Tag: InstructionInitializeImmutableOwner})
	return runtime.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(account).WRITE(),
	}, data)
}

func NewInitializeAccount3Instruction(account, mint, owner solana.PublicKey) *runtime.Instruction {
	return fromTokenProgram(spltoken.NewInitializeAccount3Instruction(owner, account, mint).Build())
}

func NewMintToInstruction(mint, destination, authority solana.PublicKey, amount uint64) *runtime.Instruction {
	return fromTokenProgram(spltoken.NewMintToInstruction(amount, mint, destination, authority, nil).Build())
}

// NewSetAuthorityInstruction clears the authority when next is nil.
func NewSetAuthorityInstruction(target, current solana.PublicKey, authorityType spltoken.AuthorityType, next *solana.PublicKey) *runtime.Instruction {
	b := spltoken.NewSetAuthorityInstructionBuilder().
		SetAuthorityType(authorityType).
		SetSubjectAccount(target).
		SetAuthorityAccount(current)
	if next != nil {
		b.SetNewAuthority(*next)
	}
	return fromTokenProgram(b.Build())
}
