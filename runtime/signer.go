package runtime

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Signer is a signing capability for one key. A derived signer proves
// authority over a program address with its seeds and bump, a plain signer
// stands for a key that signed the transaction.
type Signer struct {
	Key     solana.PublicKey
	Program solana.PublicKey
	Seeds   [][]byte
	Bump    uint8
	derived bool
}

func DeriveSigner(programID solana.PublicKey, seeds ...[]byte) (Signer, error) {
	for _, s := range seeds {
		if len(s) > solana.MaxSeedLength {
			return Signer{}, fmt.Errorf("%w: seed length %d", ErrInvalidSeeds, len(s))
		}
	}
	key, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return Signer{}, err
	}
	return Signer{
		Key:     key,
		Program: programID,
		Seeds:   seeds,
		Bump:    bump,
		derived: true,
	}, nil
}

func KeySigner(key solana.PublicKey) Signer {
	return Signer{Key: key}
}

func (s Signer) Derived() bool {
	return s.derived
}

// SignerSeeds returns the seeds with the bump appended.
func (s Signer) SignerSeeds() [][]byte {
	seeds := make([][]byte, 0, len(s.Seeds)+1)
	seeds = append(seeds, s.Seeds...)
	return append(seeds, []byte{s.Bump})
}

func (s Signer) String() string {
	if s.derived {
		return fmt.Sprintf("%s(pda of %s, bump %d)", s.Key, s.Program, s.Bump)
	}
	return s.Key.String()
}
