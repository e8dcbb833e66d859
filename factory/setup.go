package factory

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/gagliardetto/solana-go"
)

const MaxUsernameLength = 32

func (p *Program) initializeProtocol(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error {
	admin, err := accs.signer()
	if err != nil {
		return err
	}
	protocol, err := accs.seeds(p.programID, SeedProtocol)
	if err != nil {
		return err
	}
	_, err = accs.program(solana.SystemProgramID)
	if err != nil {
		return err
	}
	err = checks(identityMatches(p.adminWallet, admin))
	if err != nil {
		return err
	}
	signer, err := deriveSigner(p.programID, SeedProtocol)
	if err != nil {
		return err
	}
	logger.Verbosef("factory.initializeProtocol(%s, %s)\n", admin, protocol)
	return p.createRecord(ctx, ic, admin, signer, ProtocolSpace, &Protocol{Locked: false})
}

func (p *Program) lockProtocol(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error {
	return p.setProtocolLock(ic, accs, true)
}

func (p *Program) unlockProtocol(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error {
	return p.setProtocolLock(ic, accs, false)
}

func (p *Program) setProtocolLock(ic *runtime.InvokeContext, accs *accounts, locked bool) error {
	admin, err := accs.signer()
	if err != nil {
		return err
	}
	protocol, acc, err := p.loadProtocol(ic, accs)
	if err != nil {
		return err
	}
	err = checks(identityMatches(p.adminWallet, admin))
	if err != nil {
		return err
	}
	protocol.Locked = locked
	return p.storeRecord(ic, acc, protocol)
}

func (p *Program) initializeAdmin(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error {
	var args InitializeAdminArgs
	err := decodeArgs(data, &args)
	if err != nil {
		return err
	}
	if len(args.Username) > MaxUsernameLength {
		return fmt.Errorf("%w: username %d", runtime.ErrInvalidInstructionData, len(args.Username))
	}
	payer, err := accs.signer()
	if err != nil {
		return err
	}
	admin, err := accs.next()
	if err != nil {
		return err
	}
	_, err = accs.seeds(p.programID, SeedAdminState, admin[:])
	if err != nil {
		return err
	}
	_, err = accs.program(solana.SystemProgramID)
	if err != nil {
		return err
	}
	err = checks(identityMatches(p.adminWallet, payer))
	if err != nil {
		return err
	}
	signer, err := deriveSigner(p.programID, SeedAdminState, admin[:])
	if err != nil {
		return err
	}
	state := &Admin{
		Publickey:   admin,
		Username:    args.Username,
		Initialized: ic.UnixTimestamp(),
	}
	logger.Verbosef("factory.initializeAdmin(%s, %s)\n", admin, args.Username)
	return p.createRecord(ctx, ic, payer, signer, adminSpace(args.Username), state)
}

func (p *Program) createCollection(ctx context.Context, ic *runtime.InvokeContext, accs *accounts, data []byte) error {
	var args CreateCollectionArgs
	err := decodeArgs(data, &args)
	if err != nil {
		return err
	}
	owner, err := accs.signer()
	if err != nil {
		return err
	}
	_, err = accs.seeds(p.programID, SeedCollection, owner[:])
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
	err = checks(notLocked(protocol))
	if err != nil {
		return err
	}

	c := &Collection{
		Reference:          args.Reference,
		Name:               args.Name,
		Symbol:             args.Symbol,
		Owner:              owner,
		SaleStartTime:      args.SaleStartTime,
		MaxSupply:          args.MaxSupply,
		TotalSupply:        0,
		Price:              args.Price,
		StableId:           args.StableId,
		Whitelist:          WhiteList{Wallets: args.Whitelist},
		WhitelistStartTime: args.WhitelistStartTime,
		WhitelistPrice:     args.WhitelistPrice,
	}
	signer, err := deriveSigner(p.programID, SeedCollection, owner[:])
	if err != nil {
		return err
	}
	logger.Verbosef("factory.createCollection(%s, %s, %d)\n", owner, c.Name, c.MaxSupply)
	return p.createRecord(ctx, ic, owner, signer, c.Space(), c)
}
