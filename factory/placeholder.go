package factory

import (
	"context"
	"strconv"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/token"
	"github.com/gagliardetto/solana-go"
)

const PlaceholderNamePrefix = "Placeholder for "

var placeholderMintExtensions = []token.ExtensionType{
	token.ExtensionMintCloseAuthority,
	token.ExtensionPermanentDelegate,
	token.ExtensionMetadataPointer,
}

// placeholderMetadata lists the additional fields in the order they are
// appended to the mint.
func placeholderMetadata(auth, mint, collectionKey solana.PublicKey, c *Collection, id uint64, uri string, ts int64) *token.TokenMetadata {
	return &token.TokenMetadata{
		UpdateAuthority: auth,
		Mint:            mint,
		Name:            PlaceholderNamePrefix + c.Name,
		Symbol:          c.Symbol,
		Uri:             uri,
		AdditionalMetadata: []token.MetadataField{
			{Key: "id", Value: strconv.FormatUint(id, 10)},
			{Key: "count", Value: strconv.FormatUint(c.TotalSupply+1, 10)},
			{Key: "timestamp", Value: strconv.FormatInt(ts, 10)},
			{Key: "price", Value: strconv.FormatUint(c.Price, 10)},
			{Key: "collection", Value: c.Name},
			{Key: "collection key", Value: collectionKey.String()},
		},
	}
}

func (p *Program) createPlaceholder(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error {
	var args CreatePlaceholderArgs
	err := decodeArgs(data, &args)
	if err != nil {
		return err
	}

	admin, err := accs.signer()
	if err != nil {
		return err
	}
	adminStateKey, err := accs.seeds(p.programID, SeedAdminState, admin[:])
	if err != nil {
		return err
	}
	var adminState Admin
	_, err = p.loadRecord(ic, adminStateKey, &adminState)
	if err != nil {
		return err
	}
	collection, collectionAcc, err := p.loadCollection(ic, accs)
	if err != nil {
		return err
	}
	collectionKey := collectionAcc.Address
	placeholderKey, err := accs.seeds(p.programID, SeedPlaceholder, collectionKey[:], idSeed(args.Id))
	if err != nil {
		return err
	}
	mintKey, err := accs.seeds(p.programID, SeedMint, placeholderKey[:])
	if err != nil {
		return err
	}
	_, err = accs.seeds(p.programID, SeedAuth)
	if err != nil {
		return err
	}
	_, err = accs.address(solana.SysVarRentPubkey)
	if err != nil {
		return err
	}
	_, err = accs.program(token.ProgramID)
	if err != nil {
		return err
	}
	protocol, _, err := p.loadProtocol(ic, accs)
	if err != nil {
		return err
	}
	_, err = accs.program(solana.SystemProgramID)
	if err != nil {
		return err
	}

	err = checks(
		notLocked(protocol),
		identityMatches(adminState.Publickey, admin),
		supplyNotExceeded(collection),
	)
	if err != nil {
		return err
	}

	ts := ic.UnixTimestamp()
	placeholderSigner, err := deriveSigner(p.programID, SeedPlaceholder, collectionKey[:], idSeed(args.Id))
	if err != nil {
		return err
	}
	placeholder := &Placeholder{
		Id:         args.Id,
		Collection: collectionKey,
		Reference:  collection.Reference.String(),
		Name:       collection.Name,
		Price:      collection.Price,
		TimeStamp:  ts,
	}
	err = p.createRecord(ctx, ic, admin, placeholderSigner, placeholderSpace(collection), placeholder)
	if err != nil {
		return err
	}

	md := placeholderMetadata(p.auth.Key, mintKey, collectionKey, collection, args.Id, args.Uri, ts)
	size := token.MintSize(placeholderMintExtensions...)
	lamports := ic.Rent().MinimumBalance(size + md.TLVSize())
	mintSigner, err := deriveSigner(p.programID, SeedMint, placeholderKey[:])
	if err != nil {
		return err
	}
	logger.Verbosef("factory.createPlaceholder(%s, %d, %s, %d, %d)\n", collectionKey, args.Id, mintKey, size, lamports)
	err = ic.CreateAccount(ctx, runtime.KeySigner(admin), mintSigner, lamports, size, token.ProgramID)
	if err != nil {
		return err
	}

	auth := p.auth.Key
	for _, ix := range []*runtime.Instruction{
		token.NewInitializePermanentDelegateInstruction(mintKey, auth),
		token.NewInitializeMintCloseAuthorityInstruction(mintKey, &auth),
		token.NewInitializeMetadataPointerInstruction(mintKey, auth, mintKey),
	} {
		err = ic.Invoke(ctx, ix)
		if err != nil {
			return err
		}
	}
	err = ic.Invoke(ctx, token.NewInitializeMint2Instruction(mintKey, auth, nil, 0), mintSigner)
	if err != nil {
		return err
	}

	initMetadata := token.NewInitializeMetadataInstruction(mintKey, auth, mintKey, auth, md.Name, md.Symbol, md.Uri)
	err = ic.Invoke(ctx, initMetadata, p.auth)
	if err != nil {
		return err
	}
	for _, f := range md.AdditionalMetadata {
		ix := token.NewUpdateFieldInstruction(mintKey, auth, token.KeyField(f.Key), f.Value)
		err = ic.Invoke(ctx, ix, p.auth)
		if err != nil {
			return err
		}
	}
	return nil
}
