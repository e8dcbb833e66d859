package factory

import (
	"fmt"

	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/gagliardetto/solana-go"
)

const (
	signatureSignerStart  = runtime.Ed25519PublicKeyOffset
	signatureMessageStart = runtime.Ed25519MessageOffset
	signatureMessageSize  = 32
	signatureDataSize     = signatureMessageStart + signatureMessageSize
)

// SignatureInstruction is the detached approval of an airdrop: the signer
// approved the recipient named by the message.
type SignatureInstruction struct {
	Signer  solana.PublicKey
	Message solana.PublicKey
}

// DecodeSignatureInstruction accepts only the single signature layout
// produced by NewAirdropSignatureInstruction.
func DecodeSignatureInstruction(ix *runtime.Instruction) (*SignatureInstruction, error) {
	if ix.ProgramID != runtime.Ed25519ProgramID {
		return nil, fmt.Errorf("%w: program %s", ErrInstructionsNotCorrect, ix.ProgramID)
	}
	if len(ix.Data) < signatureDataSize {
		return nil, fmt.Errorf("%w: data size %d", ErrInstructionsNotCorrect, len(ix.Data))
	}
	if ix.Data[0] != 1 {
		return nil, fmt.Errorf("%w: %d signatures", ErrInstructionsNotCorrect, ix.Data[0])
	}
	o, err := runtime.ParseEd25519Offsets(ix.Data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInstructionsNotCorrect, err)
	}
	if o.PublicKeyOffset != signatureSignerStart ||
		o.SignatureOffset != runtime.Ed25519SignatureOffset ||
		o.MessageDataOffset != signatureMessageStart ||
		o.MessageDataSize != signatureMessageSize {
		return nil, fmt.Errorf("%w: offsets %v", ErrInstructionsNotCorrect, *o)
	}
	if o.PublicKeyInstructionIndex != runtime.Ed25519CurrentInstruction ||
		o.SignatureInstructionIndex != runtime.Ed25519CurrentInstruction ||
		o.MessageInstructionIndex != runtime.Ed25519CurrentInstruction {
		return nil, fmt.Errorf("%w: offsets outside of the instruction", ErrInstructionsNotCorrect)
	}
	return &SignatureInstruction{
		Signer:  solana.PublicKeyFromBytes(ix.Data[signatureSignerStart : signatureSignerStart+32]),
		Message: solana.PublicKeyFromBytes(ix.Data[signatureMessageStart:signatureDataSize]),
	}, nil
}

// NewAirdropSignatureInstruction is the approval of the administrator for
// recipient, to be placed right before the airdrop instruction.
func NewAirdropSignatureInstruction(admin solana.PrivateKey, recipient solana.PublicKey) (*runtime.Instruction, error) {
	return runtime.NewEd25519Instruction(admin, recipient[:])
}
