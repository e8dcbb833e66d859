package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/MixinNetwork/solfactory/factory"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/store"
	"github.com/MixinNetwork/solfactory/token"
	"github.com/gagliardetto/solana-go"
)

// Worker owns the runtime with the token, associated token and factory
// programs loaded, and turns commands into queued transactions.
type Worker struct {
	rt      *runtime.Runtime
	store   *store.BadgerStore
	conf    *Configuration
	builder *factory.Builder
}

func NewWorker(ctx context.Context, db *store.BadgerStore, conf *Configuration) (*Worker, error) {
	rt, err := runtime.BuildRuntime(ctx, db, &conf.Runtime)
	if err != nil {
		return nil, err
	}
	program, err := factory.NewProgram(conf.ProgramID(), conf.AdminWallet())
	if err != nil {
		return nil, err
	}
	rt.AddProgram(token.NewProgram())
	rt.AddProgram(token.NewAssociatedProgram())
	rt.AddProgram(program)
	return &Worker{
		rt:      rt,
		store:   db,
		conf:    conf,
		builder: factory.NewBuilder(conf.ProgramID()),
	}, nil
}

// Setup funds the genesis keys and creates the protocol, the admin state and
// the collection in one transaction.
func (w *Worker) Setup(ctx context.Context, nonce string) error {
	admin, err := w.conf.AdminKey()
	if err != nil {
		return err
	}
	owner, err := w.conf.CollectionOwnerKey()
	if err != nil {
		return err
	}
	cc := w.conf.Genesis.Collection
	var reference solana.PublicKey
	if cc.Reference != "" {
		reference, err = solana.PublicKeyFromBase58(cc.Reference)
		if err != nil {
			return err
		}
	}
	args := factory.CreateCollectionArgs{
		Reference:     reference,
		Name:          cc.Name,
		Symbol:        cc.Symbol,
		SaleStartTime: cc.SaleStartTime,
		MaxSupply:     cc.MaxSupply,
		Price:         cc.Price,
		StableId:      cc.StableId,
	}

	for _, k := range []solana.PublicKey{admin.PublicKey(), owner.PublicKey()} {
		acc, err := w.rt.ReadAccount(k)
		if err != nil {
			return err
		}
		if acc != nil && acc.Lamports >= w.conf.Genesis.Lamports {
			continue
		}
		err = w.rt.Fund(k, w.conf.Genesis.Lamports)
		if err != nil {
			return err
		}
	}

	traceId := factory.SetupTraceId(admin.PublicKey(), nonce)
	tx, err := w.builder.SetupTransaction(traceId, admin, owner, w.conf.Genesis.AdminUsername, args)
	if err != nil {
		return err
	}
	logger.Printf("Worker.Setup(%s, %s, %s)\n", traceId, admin.PublicKey(), owner.PublicKey())
	return w.rt.ProcessTransaction(ctx, tx)
}

func (w *Worker) collectionOwner() (solana.PublicKey, error) {
	owner, err := w.conf.CollectionOwnerKey()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return owner.PublicKey(), nil
}

func (w *Worker) Issue(ctx context.Context, id uint64, uri, nonce string) (string, error) {
	admin, err := w.conf.AdminKey()
	if err != nil {
		return "", err
	}
	owner, err := w.collectionOwner()
	if err != nil {
		return "", err
	}
	collection, _, err := factory.CollectionAddress(w.conf.ProgramID(), owner)
	if err != nil {
		return "", err
	}
	traceId := factory.IssueTraceId(collection, id, nonce)
	tx, err := w.builder.IssueTransaction(traceId, admin, owner, id, uri)
	if err != nil {
		return "", err
	}
	return traceId, w.rt.SubmitTransaction(tx)
}

func (w *Worker) Airdrop(ctx context.Context, id uint64, buyer solana.PublicKey, nonce string) (string, error) {
	admin, err := w.conf.AdminKey()
	if err != nil {
		return "", err
	}
	owner, err := w.collectionOwner()
	if err != nil {
		return "", err
	}
	collection, _, err := factory.CollectionAddress(w.conf.ProgramID(), owner)
	if err != nil {
		return "", err
	}
	placeholder, _, err := factory.PlaceholderAddress(w.conf.ProgramID(), collection, id)
	if err != nil {
		return "", err
	}
	traceId := factory.AirdropTraceId(placeholder, buyer, nonce)
	tx, err := w.builder.AirdropTransaction(traceId, admin, owner, buyer, id)
	if err != nil {
		return "", err
	}
	return traceId, w.rt.SubmitTransaction(tx)
}

func (w *Worker) Show(id uint64) (string, error) {
	owner, err := w.collectionOwner()
	if err != nil {
		return "", err
	}
	programID := w.conf.ProgramID()
	c, err := factory.ReadCollection(w.store, programID, owner)
	if err != nil {
		return "", err
	}
	ph, mint, err := factory.ReadPlaceholder(w.store, programID, owner, id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "collection: %s %s %d/%d\n", c.Name, c.Symbol, c.TotalSupply, c.MaxSupply)
	fmt.Fprintf(&b, "placeholder: %d %s %d %d\n", ph.Id, ph.Name, ph.Price, ph.TimeStamp)
	fmt.Fprintf(&b, "supply: %d mint authority: %v\n", mint.Supply, mint.MintAuthority != nil)
	md, err := mint.Metadata()
	if err != nil {
		return b.String(), err
	}
	fmt.Fprintf(&b, "metadata: %s %s %s\n", md.Name, md.Symbol, md.Uri)
	for _, f := range md.AdditionalMetadata {
		fmt.Fprintf(&b, "  %s: %s\n", f.Key, f.Value)
	}
	return b.String(), nil
}

func (w *Worker) Receipt(traceId string) (*runtime.Receipt, error) {
	return w.rt.ReadReceipt(traceId)
}

func (w *Worker) Run(ctx context.Context) {
	w.rt.Run(ctx)
}
