package factory

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/token"
	"github.com/gagliardetto/solana-go"
)

// airdropPlaceholder mints the single unit of a placeholder to the buyer the
// admin wallet approved in the ed25519 instruction right before this one,
// then revokes the mint authority for good.
func (p *Program) airdropPlaceholder(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error {
	buyer, err := accs.next()
	if err != nil {
		return err
	}
	payer, err := accs.signer()
	if err != nil {
		return err
	}
	collection, collectionAcc, err := p.loadCollection(ic, accs)
	if err != nil {
		return err
	}
	collectionKey := collectionAcc.Address
	_, err = accs.address(collection.Owner)
	if err != nil {
		return err
	}
	ataKey, err := accs.next()
	if err != nil {
		return err
	}
	placeholderKey, err := accs.next()
	if err != nil {
		return err
	}
	var placeholder Placeholder
	_, err = p.loadRecord(ic, placeholderKey, &placeholder)
	if err != nil {
		return err
	}
	err = requireSeeds(placeholderKey, p.programID, SeedPlaceholder, collectionKey[:], idSeed(placeholder.Id))
	if err != nil {
		return err
	}
	mintKey, err := accs.seeds(p.programID, SeedMint, placeholderKey[:])
	if err != nil {
		return err
	}
	expectedAta, _, err := RecipientTokenAddress(buyer, mintKey)
	if err != nil {
		return err
	}
	if ataKey != expectedAta {
		return fmt.Errorf("%w: recipient token account expected %s got %s", ErrConstraintSeeds, expectedAta, ataKey)
	}
	_, err = accs.seeds(p.programID, SeedAuth)
	if err != nil {
		return err
	}
	for _, id := range []solana.PublicKey{token.AssociatedProgramID, solana.TokenProgramID, token.ProgramID} {
		_, err = accs.program(id)
		if err != nil {
			return err
		}
	}
	protocol, _, err := p.loadProtocol(ic, accs)
	if err != nil {
		return err
	}
	_, err = accs.program(solana.SystemProgramID)
	if err != nil {
		return err
	}
	_, err = accs.address(solana.SysVarInstructionsPubkey)
	if err != nil {
		return err
	}

	err = checks(
		notLocked(protocol),
		identityMatches(p.adminWallet, payer),
		supplyAvailable(collection),
	)
	if err != nil {
		return err
	}

	index := ic.CurrentIndex()
	if index == 0 {
		logger.Verbosef("factory.airdropPlaceholder(%s, %s) without approval\n", ic.TraceId(), buyer)
		return nil
	}
	prev, err := ic.InstructionAt(int(index) - 1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInstructionsNotCorrect, err)
	}
	approval, err := DecodeSignatureInstruction(prev)
	if err != nil {
		return err
	}
	err = checks(
		identityMatches(p.adminWallet, approval.Signer),
		identityMatches(buyer, approval.Message),
	)
	if err != nil {
		return err
	}

	create, err := token.NewCreateAssociatedAccountInstruction(payer, buyer, mintKey, true)
	if err != nil {
		return err
	}
	err = ic.Invoke(ctx, create)
	if err != nil {
		return err
	}
	err = ic.Invoke(ctx, token.NewMintToInstruction(mintKey, ataKey, p.auth.Key, 1), p.auth)
	if err != nil {
		return err
	}

	collection.TotalSupply += 1
	err = p.storeRecord(ic, collectionAcc, collection)
	if err != nil {
		return err
	}

	revoke := token.NewSetAuthorityInstruction(mintKey, p.auth.Key, token.AuthorityMintTokens, nil)
	err = ic.Invoke(ctx, revoke, p.auth)
	if err != nil {
		return err
	}

	acc, err := ic.ReadAccount(ataKey)
	if err != nil {
		return err
	}
	balance, err := token.Balance(acc)
	if err != nil || balance != 1 {
		return fmt.Errorf("%w: %d %v", ErrInvalidBalancePostMint, balance, err)
	}
	logger.Verbosef("factory.airdropPlaceholder(%s, %d, %s) => %d/%d\n", collectionKey, placeholder.Id, buyer, collection.TotalSupply, collection.MaxSupply)
	return nil
}
