package factory

import (
	"crypto/sha256"

	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/token"
	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

const (
	InstructionInitializeProtocol = "initialize_protocol"
	InstructionLockProtocol       = "lock_protocol"
	InstructionUnlockProtocol     = "unlock_protocol"
	InstructionInitializeAdmin    = "initialize_admin_account"
	InstructionCreateCollection   = "create_collection"
	InstructionCreatePlaceholder  = "create_placeholder"
	InstructionAirdropPlaceholder = "airdrop_placeholder"
)

func InstructionDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:DiscriminatorSize]
}

type InitializeAdminArgs struct {
	Username string
}

type CreateCollectionArgs struct {
	Reference          solana.PublicKey
	Name               string
	Symbol             string
	SaleStartTime      int64
	MaxSupply          uint64
	Price              uint64
	StableId           string
	Whitelist          []solana.PublicKey
	WhitelistStartTime int64
	WhitelistPrice     uint64
}

type CreatePlaceholderArgs struct {
	Id  uint64
	Uri string
}

func encodeInstruction(name string, args interface{}) []byte {
	data := InstructionDiscriminator(name)
	if args == nil {
		return data
	}
	b, err := borsh.Serialize(args)
	if err != nil {
		panic(err)
	}
	return append(data, b...)
}

// Builder assembles instructions for one deployment of the program.
type Builder struct {
	ProgramID solana.PublicKey
}

func NewBuilder(programID solana.PublicKey) *Builder {
	return &Builder{ProgramID: programID}
}

func (b *Builder) must(key solana.PublicKey, _ uint8, err error) solana.PublicKey {
	if err != nil {
		panic(err)
	}
	return key
}

func (b *Builder) InitializeProtocol(admin solana.PublicKey) *runtime.Instruction {
	return runtime.NewInstruction(b.ProgramID, []*solana.AccountMeta{
		solana.Meta(admin).WRITE().SIGNER(),
		solana.Meta(b.must(ProtocolAddress(b.ProgramID))).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, encodeInstruction(InstructionInitializeProtocol, nil))
}

func (b *Builder) SetProtocolLock(admin solana.PublicKey, locked bool) *runtime.Instruction {
	name := InstructionUnlockProtocol
	if locked {
		name = InstructionLockProtocol
	}
	return runtime.NewInstruction(b.ProgramID, []*solana.AccountMeta{
		solana.Meta(admin).SIGNER(),
		solana.Meta(b.must(ProtocolAddress(b.ProgramID))).WRITE(),
	}, encodeInstruction(name, nil))
}

func (b *Builder) InitializeAdmin(payer, admin solana.PublicKey, username string) *runtime.Instruction {
	return runtime.NewInstruction(b.ProgramID, []*solana.AccountMeta{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(admin),
		solana.Meta(b.must(AdminStateAddress(b.ProgramID, admin))).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, encodeInstruction(InstructionInitializeAdmin, InitializeAdminArgs{Username: username}))
}

func (b *Builder) CreateCollection(owner solana.PublicKey, args CreateCollectionArgs) *runtime.Instruction {
	return runtime.NewInstruction(b.ProgramID, []*solana.AccountMeta{
		solana.Meta(owner).WRITE().SIGNER(),
		solana.Meta(b.must(CollectionAddress(b.ProgramID, owner))).WRITE(),
		solana.Meta(b.must(ProtocolAddress(b.ProgramID))),
		solana.Meta(solana.SystemProgramID),
	}, encodeInstruction(InstructionCreateCollection, args))
}

func (b *Builder) CreatePlaceholder(admin, collectionOwner solana.PublicKey, id uint64, uri string) *runtime.Instruction {
	collection := b.must(CollectionAddress(b.ProgramID, collectionOwner))
	placeholder := b.must(PlaceholderAddress(b.ProgramID, collection, id))
	return runtime.NewInstruction(b.ProgramID, []*solana.AccountMeta{
		solana.Meta(admin).WRITE().SIGNER(),
		solana.Meta(b.must(AdminStateAddress(b.ProgramID, admin))),
		solana.Meta(collection),
		solana.Meta(placeholder).WRITE(),
		solana.Meta(b.must(MintAddress(b.ProgramID, placeholder))).WRITE(),
		solana.Meta(b.must(AuthAddress(b.ProgramID))),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(token.ProgramID),
		solana.Meta(b.must(ProtocolAddress(b.ProgramID))),
		solana.Meta(solana.SystemProgramID),
	}, encodeInstruction(InstructionCreatePlaceholder, CreatePlaceholderArgs{Id: id, Uri: uri}))
}

func (b *Builder) AirdropPlaceholder(buyer, payer, collectionOwner solana.PublicKey, id uint64) *runtime.Instruction {
	collection := b.must(CollectionAddress(b.ProgramID, collectionOwner))
	placeholder := b.must(PlaceholderAddress(b.ProgramID, collection, id))
	mint := b.must(MintAddress(b.ProgramID, placeholder))
	return runtime.NewInstruction(b.ProgramID, []*solana.AccountMeta{
		solana.Meta(buyer).WRITE(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(collection).WRITE(),
		solana.Meta(collectionOwner).WRITE(),
		solana.Meta(b.must(RecipientTokenAddress(buyer, mint))).WRITE(),
		solana.Meta(placeholder).WRITE(),
		solana.Meta(mint).WRITE(),
		solana.Meta(b.must(AuthAddress(b.ProgramID))),
		solana.Meta(token.AssociatedProgramID),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(token.ProgramID),
		solana.Meta(b.must(ProtocolAddress(b.ProgramID))),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarInstructionsPubkey),
	}, encodeInstruction(InstructionAirdropPlaceholder, nil))
}
