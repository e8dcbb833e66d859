package factory

import (
	"encoding/binary"

	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/token"
	"github.com/gagliardetto/solana-go"
)

var DefaultProgramID = solana.MustPublicKeyFromBase58("4QjMzsmbNpamNx29rUNHJkPVEFUTzSEVTpMsRYF17oEy")

const (
	SeedProtocol    = "protocol"
	SeedAdminState  = "admin_state"
	SeedCollection  = "collection"
	SeedPlaceholder = "placeholder"
	SeedMint        = "mint"
	SeedAuth        = "auth"
)

// Derive finds the program address of a label and its parent keys. It is
// pure, the same inputs always give the same address and bump.
func Derive(programID solana.PublicKey, label string, parents ...[]byte) (solana.PublicKey, uint8, error) {
	s, err := deriveSigner(programID, label, parents...)
	return s.Key, s.Bump, err
}

func deriveSigner(programID solana.PublicKey, label string, parents ...[]byte) (runtime.Signer, error) {
	seeds := append([][]byte{[]byte(label)}, parents...)
	return runtime.DeriveSigner(programID, seeds...)
}

func idSeed(id uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, id)
	return buf
}

func ProtocolAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, SeedProtocol)
}

func AdminStateAddress(programID, admin solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, SeedAdminState, admin[:])
}

func CollectionAddress(programID, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, SeedCollection, owner[:])
}

func PlaceholderAddress(programID, collection solana.PublicKey, id uint64) (solana.PublicKey, uint8, error) {
	return Derive(programID, SeedPlaceholder, collection[:], idSeed(id))
}

func MintAddress(programID, placeholder solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, SeedMint, placeholder[:])
}

func AuthAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Derive(programID, SeedAuth)
}

// RecipientTokenAddress is the associated token account of the recipient
// for a placeholder mint.
func RecipientTokenAddress(recipient, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return token.FindAssociatedAddress(recipient, mint)
}
