package factory

import (
	"fmt"
	"strconv"

	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/token"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/gagliardetto/solana-go"
)

type AccountReader interface {
	ReadAccount(key solana.PublicKey) (*runtime.Account, error)
}

// IssueTraceId is stable for a placeholder, issuing it twice is rejected by
// the runtime. Change the nonce to retry after a failure.
func IssueTraceId(collection solana.PublicKey, id uint64, nonce string) string {
	return mixin.UniqueConversationID(collection.String(), "issue:"+strconv.FormatUint(id, 10)+":"+nonce)
}

func AirdropTraceId(placeholder, buyer solana.PublicKey, nonce string) string {
	return mixin.UniqueConversationID(placeholder.String(), "airdrop:"+buyer.String()+":"+nonce)
}

func SetupTraceId(admin solana.PublicKey, nonce string) string {
	return mixin.UniqueConversationID(admin.String(), "setup:"+nonce)
}

// SetupTransaction initializes the protocol, registers the admin wallet as
// an admin and creates the collection of owner.
func (b *Builder) SetupTransaction(traceId string, admin, owner solana.PrivateKey, username string, args CreateCollectionArgs) (*runtime.Transaction, error) {
	tx, err := runtime.NewTransaction(traceId, admin.PublicKey(),
		b.InitializeProtocol(admin.PublicKey()),
		b.InitializeAdmin(admin.PublicKey(), admin.PublicKey(), username),
		b.CreateCollection(owner.PublicKey(), args),
	)
	if err != nil {
		return nil, err
	}
	return tx, tx.Sign(admin, owner)
}

// IssueTransaction creates placeholder id of the collection owned by owner.
func (b *Builder) IssueTransaction(traceId string, admin solana.PrivateKey, owner solana.PublicKey, id uint64, uri string) (*runtime.Transaction, error) {
	ix := b.CreatePlaceholder(admin.PublicKey(), owner, id, uri)
	tx, err := runtime.NewTransaction(traceId, admin.PublicKey(), ix)
	if err != nil {
		return nil, err
	}
	return tx, tx.Sign(admin)
}

// AirdropTransaction puts the admin approval of buyer right before the
// airdrop instruction, both signed by the admin wallet.
func (b *Builder) AirdropTransaction(traceId string, admin solana.PrivateKey, owner, buyer solana.PublicKey, id uint64) (*runtime.Transaction, error) {
	approval, err := NewAirdropSignatureInstruction(admin, buyer)
	if err != nil {
		return nil, err
	}
	ix := b.AirdropPlaceholder(buyer, admin.PublicKey(), owner, id)
	tx, err := runtime.NewTransaction(traceId, admin.PublicKey(), approval, ix)
	if err != nil {
		return nil, err
	}
	return tx, tx.Sign(admin)
}

func readRecord(r AccountReader, programID, key solana.PublicKey, v interface{}) error {
	acc, err := r.ReadAccount(key)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("%w: %s", ErrAccountNotInitialized, key)
	}
	if acc.Owner != programID {
		return fmt.Errorf("%w: %s", ErrAccountOwnedByWrongProgram, key)
	}
	return DecodeRecord(acc.Data, v)
}

func ReadProtocol(r AccountReader, programID solana.PublicKey) (*Protocol, error) {
	key, _, err := ProtocolAddress(programID)
	if err != nil {
		return nil, err
	}
	var p Protocol
	return &p, readRecord(r, programID, key, &p)
}

func ReadCollection(r AccountReader, programID, owner solana.PublicKey) (*Collection, error) {
	key, _, err := CollectionAddress(programID, owner)
	if err != nil {
		return nil, err
	}
	var c Collection
	return &c, readRecord(r, programID, key, &c)
}

func ReadPlaceholder(r AccountReader, programID, owner solana.PublicKey, id uint64) (*Placeholder, *token.Mint, error) {
	collection, _, err := CollectionAddress(programID, owner)
	if err != nil {
		return nil, nil, err
	}
	key, _, err := PlaceholderAddress(programID, collection, id)
	if err != nil {
		return nil, nil, err
	}
	var ph Placeholder
	err = readRecord(r, programID, key, &ph)
	if err != nil {
		return nil, nil, err
	}
	mintKey, _, err := MintAddress(programID, key)
	if err != nil {
		return nil, nil, err
	}
	acc, err := r.ReadAccount(mintKey)
	if err != nil {
		return nil, nil, err
	}
	if acc == nil || acc.Owner != token.ProgramID {
		return &ph, nil, fmt.Errorf("%w: mint %s", ErrAccountNotInitialized, mintKey)
	}
	mint, err := token.UnpackMint(acc.Data)
	return &ph, mint, err
}
