package runtime

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var Ed25519ProgramID = solana.MustPublicKeyFromBase58("Ed25519SigVerify111111111111111111111111111")

const (
	Ed25519SignatureOffsetsStart = 2
	Ed25519SignatureOffsetsSize  = 14
	Ed25519PublicKeyOffset       = Ed25519SignatureOffsetsStart + Ed25519SignatureOffsetsSize
	Ed25519SignatureOffset       = Ed25519PublicKeyOffset + 32
	Ed25519MessageOffset         = Ed25519SignatureOffset + 64

	// the offsets refer to the data of the instruction carrying them
	Ed25519CurrentInstruction = 0xFFFF
)

var ErrInvalidEd25519Instruction = errors.New("invalid ed25519 instruction")

type Ed25519SignatureOffsets struct {
	SignatureOffset           uint16
	SignatureInstructionIndex uint16
	PublicKeyOffset           uint16
	PublicKeyInstructionIndex uint16
	MessageDataOffset         uint16
	MessageDataSize           uint16
	MessageInstructionIndex   uint16
}

// NewEd25519Instruction signs msg with key and lays out one signature the way
// the precompile expects it, all offsets pointing into the same instruction.
func NewEd25519Instruction(key solana.PrivateKey, msg []byte) (*Instruction, error) {
	sig, err := key.Sign(msg)
	if err != nil {
		return nil, err
	}
	pub := key.PublicKey()
	return NewEd25519InstructionWithSignature(pub, sig, msg), nil
}

func NewEd25519InstructionWithSignature(pub solana.PublicKey, sig solana.Signature, msg []byte) *Instruction {
	data := make([]byte, Ed25519MessageOffset+len(msg))
	data[0] = 1
	offsets := Ed25519SignatureOffsets{
		SignatureOffset:           Ed25519SignatureOffset,
		SignatureInstructionIndex: Ed25519CurrentInstruction,
		PublicKeyOffset:           Ed25519PublicKeyOffset,
		PublicKeyInstructionIndex: Ed25519CurrentInstruction,
		MessageDataOffset:         Ed25519MessageOffset,
		MessageDataSize:           uint16(len(msg)),
		MessageInstructionIndex:   Ed25519CurrentInstruction,
	}
	offsets.put(data[Ed25519SignatureOffsetsStart:])
	copy(data[Ed25519PublicKeyOffset:], pub[:])
	copy(data[Ed25519SignatureOffset:], sig[:])
	copy(data[Ed25519MessageOffset:], msg)
	return NewInstruction(Ed25519ProgramID, nil, data)
}

func (o *Ed25519SignatureOffsets) put(b []byte) {
	buf, err := bin.MarshalBin(o)
	if err != nil {
		panic(err)
	}
	copy(b, buf)
}

func ParseEd25519Offsets(data []byte, i int) (*Ed25519SignatureOffsets, error) {
	start := Ed25519SignatureOffsetsStart + i*Ed25519SignatureOffsetsSize
	if len(data) < start+Ed25519SignatureOffsetsSize {
		return nil, fmt.Errorf("%w: offsets %d out of data %d", ErrInvalidEd25519Instruction, i, len(data))
	}
	var o Ed25519SignatureOffsets
	err := bin.NewBinDecoder(data[start : start+Ed25519SignatureOffsetsSize]).Decode(&o)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEd25519Instruction, err)
	}
	return &o, nil
}

// VerifyEd25519Instruction checks every signature listed in data. Offsets may
// only refer to the instruction itself.
func VerifyEd25519Instruction(data []byte) error {
	if len(data) < Ed25519SignatureOffsetsStart {
		return fmt.Errorf("%w: data %d", ErrInvalidEd25519Instruction, len(data))
	}
	count := int(data[0])
	if count == 0 && len(data) > Ed25519SignatureOffsetsStart {
		return fmt.Errorf("%w: no signatures", ErrInvalidEd25519Instruction)
	}
	for i := 0; i < count; i++ {
		o, err := ParseEd25519Offsets(data, i)
		if err != nil {
			return err
		}
		if o.SignatureInstructionIndex != Ed25519CurrentInstruction ||
			o.PublicKeyInstructionIndex != Ed25519CurrentInstruction ||
			o.MessageInstructionIndex != Ed25519CurrentInstruction {
			return fmt.Errorf("%w: cross instruction offsets", ErrInvalidEd25519Instruction)
		}
		sig, err := slice(data, o.SignatureOffset, 64)
		if err != nil {
			return err
		}
		pub, err := slice(data, o.PublicKeyOffset, 32)
		if err != nil {
			return err
		}
		msg, err := slice(data, o.MessageDataOffset, int(o.MessageDataSize))
		if err != nil {
			return err
		}
		key := solana.PublicKeyFromBytes(pub)
		if !solana.SignatureFromBytes(sig).Verify(key, msg) {
			return fmt.Errorf("%w: signature %d by %s", ErrInvalidEd25519Instruction, i, key)
		}
	}
	return nil
}

func slice(data []byte, offset uint16, size int) ([]byte, error) {
	end := int(offset) + size
	if end > len(data) {
		return nil, fmt.Errorf("%w: %d+%d out of data %d", ErrInvalidEd25519Instruction, offset, size, len(data))
	}
	return data[offset:end], nil
}

type ed25519Program struct{}

func (ed25519Program) ProgramID() solana.PublicKey {
	return Ed25519ProgramID
}

func (ed25519Program) Process(ctx context.Context, ic *InvokeContext, ix *Instruction) error {
	if ic.depth > 0 {
		return fmt.Errorf("%w: precompile invoked by %s", ErrUnsupportedProgram, ic.caller)
	}
	return VerifyEd25519Instruction(ix.Data)
}
