package factory

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/store"
	"github.com/MixinNetwork/solfactory/token"
	"github.com/gagliardetto/solana-go"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"github.com/gofrs/uuid"
)

const (
	testLamports = 100_000_000_000
	testURI      = "https://example.com/placeholder.json"
)

type testEnv struct {
	ctx     context.Context
	rt      *runtime.Runtime
	store   *store.BadgerStore
	program *Program
	builder *Builder
	admin   solana.PrivateKey
	owner   solana.PrivateKey
}

func newTraceId() string {
	return uuid.Must(uuid.NewV4()).String()
}

func setupTestEnv(t *testing.T, maxSupply uint64) *testEnv {
	ctx := context.Background()
	db, err := store.OpenBadger(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	rt, err := runtime.BuildRuntime(ctx, db, nil)
	if err != nil {
		t.Fatal(err)
	}
	admin, _ := solana.NewRandomPrivateKey()
	owner, _ := solana.NewRandomPrivateKey()
	program, err := NewProgram(DefaultProgramID, admin.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	rt.AddProgram(token.NewProgram())
	rt.AddProgram(token.NewAssociatedProgram())
	rt.AddProgram(program)
	for _, k := range []solana.PrivateKey{admin, owner} {
		err = rt.Fund(k.PublicKey(), testLamports)
		if err != nil {
			t.Fatal(err)
		}
	}

	env := &testEnv{
		ctx:     ctx,
		rt:      rt,
		store:   db,
		program: program,
		builder: NewBuilder(DefaultProgramID),
		admin:   admin,
		owner:   owner,
	}
	tx, err := env.builder.SetupTransaction(SetupTraceId(admin.PublicKey(), ""), admin, owner, "admin", CreateCollectionArgs{
		Reference: solana.NewWallet().PublicKey(),
		Name:      "Genesis",
		Symbol:    "GEN",
		MaxSupply: maxSupply,
		Price:     100,
		StableId:  "genesis-stable",
	})
	if err != nil {
		t.Fatal(err)
	}
	err = rt.ProcessTransaction(ctx, tx)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func (env *testEnv) process(t *testing.T, payer solana.PrivateKey, ixs ...*runtime.Instruction) error {
	tx, err := runtime.NewTransaction(newTraceId(), payer.PublicKey(), ixs...)
	if err != nil {
		t.Fatal(err)
	}
	err = tx.Sign(payer)
	if err != nil {
		t.Fatal(err)
	}
	return env.rt.ProcessTransaction(env.ctx, tx)
}

func (env *testEnv) issue(t *testing.T, id uint64) error {
	ix := env.builder.CreatePlaceholder(env.admin.PublicKey(), env.owner.PublicKey(), id, testURI)
	return env.process(t, env.admin, ix)
}

func (env *testEnv) approval(t *testing.T, signer solana.PrivateKey, recipient solana.PublicKey) *runtime.Instruction {
	ix, err := NewAirdropSignatureInstruction(signer, recipient)
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func (env *testEnv) airdrop(t *testing.T, id uint64, buyer solana.PublicKey) error {
	tx, err := env.builder.AirdropTransaction(newTraceId(), env.admin, env.owner.PublicKey(), buyer, id)
	if err != nil {
		t.Fatal(err)
	}
	return env.rt.ProcessTransaction(env.ctx, tx)
}

func (env *testEnv) collection(t *testing.T) *Collection {
	c, err := ReadCollection(env.store, DefaultProgramID, env.owner.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func (env *testEnv) recipientAccount(t *testing.T, id uint64, buyer solana.PublicKey) *runtime.Account {
	collection, _, _ := CollectionAddress(DefaultProgramID, env.owner.PublicKey())
	placeholder, _, _ := PlaceholderAddress(DefaultProgramID, collection, id)
	mint, _, _ := MintAddress(DefaultProgramID, placeholder)
	ata, _, _ := RecipientTokenAddress(buyer, mint)
	acc, err := env.rt.ReadAccount(ata)
	if err != nil {
		t.Fatal(err)
	}
	return acc
}

func TestSetup(t *testing.T) {
	env := setupTestEnv(t, 10)
	protocol, err := ReadProtocol(env.store, DefaultProgramID)
	if err != nil || protocol.Locked {
		t.Fatalf("protocol %v %v", protocol, err)
	}
	c := env.collection(t)
	if c.Owner != env.owner.PublicKey() || c.Name != "Genesis" || c.MaxSupply != 10 || c.TotalSupply != 0 {
		t.Fatalf("collection %v", c)
	}
	key, _, _ := AdminStateAddress(DefaultProgramID, env.admin.PublicKey())
	var admin Admin
	err = readRecord(env.store, DefaultProgramID, key, &admin)
	if err != nil || admin.Publickey != env.admin.PublicKey() || admin.Username != "admin" {
		t.Fatalf("admin %v %v", admin, err)
	}

	stranger, _ := solana.NewRandomPrivateKey()
	env.rt.Fund(stranger.PublicKey(), testLamports)
	err = env.process(t, stranger, env.builder.InitializeAdmin(stranger.PublicKey(), stranger.PublicKey(), "stranger"))
	if !errors.Is(err, ErrUnauthorizedAdmin) {
		t.Fatalf("stranger admin %v", err)
	}
	err = env.process(t, env.admin, env.builder.InitializeProtocol(env.admin.PublicKey()))
	if !errors.Is(err, runtime.ErrAccountAlreadyInUse) {
		t.Fatalf("protocol twice %v", err)
	}
}

// issuance
func TestScenarioIssue(t *testing.T) {
	env := setupTestEnv(t, 10)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}

	ph, mint, err := ReadPlaceholder(env.store, DefaultProgramID, env.owner.PublicKey(), 1)
	if err != nil {
		t.Fatal(err)
	}
	collection, _, _ := CollectionAddress(DefaultProgramID, env.owner.PublicKey())
	c := env.collection(t)
	if ph.Id != 1 || ph.Collection != collection || ph.Name != "Genesis" || ph.Price != 100 || ph.Reference != c.Reference.String() {
		t.Fatalf("placeholder %v", ph)
	}
	auth := env.program.Auth()
	if !mint.IsInitialized || mint.Decimals != 0 || mint.Supply != 0 || mint.FreezeAuthority != nil {
		t.Fatalf("mint %v", mint)
	}
	if mint.MintAuthority == nil || *mint.MintAuthority != auth {
		t.Fatalf("mint authority %s", mint.MintAuthority)
	}
	if k, ok := mint.PermanentDelegate(); !ok || k != auth {
		t.Fatalf("permanent delegate %s", k)
	}
	if k, ok := mint.CloseAuthority(); !ok || k != auth {
		t.Fatalf("close authority %s", k)
	}
	placeholder, _, _ := PlaceholderAddress(DefaultProgramID, collection, 1)
	mintKey, _, _ := MintAddress(DefaultProgramID, placeholder)
	mp, ok := mint.MetadataPointer()
	if !ok || mp.Authority != auth || mp.MetadataAddress != mintKey {
		t.Fatalf("metadata pointer %v", mp)
	}

	md, err := mint.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if md.Name != "Placeholder for Genesis" || md.Symbol != "GEN" || md.Uri != testURI || md.UpdateAuthority != auth || md.Mint != mintKey {
		t.Fatalf("metadata %v", md)
	}
	keys := []string{"id", "count", "timestamp", "price", "collection", "collection key"}
	if len(md.AdditionalMetadata) != len(keys) {
		t.Fatalf("metadata fields %v", md.AdditionalMetadata)
	}
	for i, k := range keys {
		if md.AdditionalMetadata[i].Key != k {
			t.Fatalf("metadata field %d %s", i, md.AdditionalMetadata[i].Key)
		}
	}
	values := map[string]string{
		"id":             "1",
		"count":          "1",
		"timestamp":      strconv.FormatInt(ph.TimeStamp, 10),
		"price":          "100",
		"collection":     "Genesis",
		"collection key": collection.String(),
	}
	for k, v := range values {
		if got, _ := md.Field(k); got != v {
			t.Fatalf("metadata field %s %s %s", k, got, v)
		}
	}

	acc, err := env.rt.ReadAccount(mintKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(acc.Data) != token.MintSize(placeholderMintExtensions...)+md.TLVSize() {
		t.Fatalf("mint size %d", len(acc.Data))
	}
	if !env.rt.Rent().IsExempt(acc.Lamports, len(acc.Data)) {
		t.Fatalf("mint not rent exempt %d", acc.Lamports)
	}

	err = env.issue(t, 1)
	if !errors.Is(err, runtime.ErrAccountAlreadyInUse) {
		t.Fatalf("issue twice %v", err)
	}
}

// claim with the approval right before the airdrop
func TestScenarioClaim(t *testing.T) {
	env := setupTestEnv(t, 10)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	buyer := solana.NewWallet().PublicKey()
	err = env.airdrop(t, 1, buyer)
	if err != nil {
		t.Fatal(err)
	}

	b, err := token.Balance(env.recipientAccount(t, 1, buyer))
	if err != nil || b != 1 {
		t.Fatalf("balance %d %v", b, err)
	}
	if c := env.collection(t); c.TotalSupply != 1 {
		t.Fatalf("total supply %d", c.TotalSupply)
	}
	_, mint, err := ReadPlaceholder(env.store, DefaultProgramID, env.owner.PublicKey(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if mint.MintAuthority != nil || mint.Supply != 1 {
		t.Fatalf("mint after claim %v", mint)
	}

	err = env.airdrop(t, 1, buyer)
	if !errors.Is(err, token.ErrFixedSupply) {
		t.Fatalf("claim twice %v", err)
	}
	other := solana.NewWallet().PublicKey()
	err = env.airdrop(t, 1, other)
	if !errors.Is(err, token.ErrFixedSupply) {
		t.Fatalf("claim for another buyer %v", err)
	}
	if c := env.collection(t); c.TotalSupply != 1 {
		t.Fatalf("total supply after failures %d", c.TotalSupply)
	}
}

// approval for another recipient
func TestScenarioWrongRecipient(t *testing.T) {
	env := setupTestEnv(t, 10)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	buyer := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	ix := env.builder.AirdropPlaceholder(buyer, env.admin.PublicKey(), env.owner.PublicKey(), 1)
	err = env.process(t, env.admin, env.approval(t, env.admin, other), ix)
	if !errors.Is(err, ErrUnauthorizedAdmin) {
		t.Fatalf("wrong recipient %v", err)
	}
	stranger, _ := solana.NewRandomPrivateKey()
	err = env.process(t, env.admin, env.approval(t, stranger, buyer), ix)
	if !errors.Is(err, ErrUnauthorizedAdmin) {
		t.Fatalf("stranger approval %v", err)
	}

	if acc := env.recipientAccount(t, 1, buyer); acc != nil {
		t.Fatalf("recipient account created %v", acc)
	}
	if c := env.collection(t); c.TotalSupply != 0 {
		t.Fatalf("total supply %d", c.TotalSupply)
	}
}

// no approval right before the airdrop
func TestScenarioMissingApproval(t *testing.T) {
	env := setupTestEnv(t, 10)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	buyer := solana.NewWallet().PublicKey()
	ix := env.builder.AirdropPlaceholder(buyer, env.admin.PublicKey(), env.owner.PublicKey(), 1)

	transfer := runtime.NewTransferInstruction(env.admin.PublicKey(), buyer, 1000000)
	err = env.process(t, env.admin, transfer, ix)
	if !errors.Is(err, ErrInstructionsNotCorrect) {
		t.Fatalf("foreign previous instruction %v", err)
	}
	err = env.process(t, env.admin, env.approval(t, env.admin, buyer), transfer, ix)
	if !errors.Is(err, ErrInstructionsNotCorrect) {
		t.Fatalf("approval not adjacent %v", err)
	}
	if b := env.recipientAccount(t, 1, buyer); b != nil {
		t.Fatalf("recipient account created %v", b)
	}

	err = env.process(t, env.admin, ix)
	if err != nil {
		t.Fatalf("airdrop at index 0 %v", err)
	}
	if b := env.recipientAccount(t, 1, buyer); b != nil {
		t.Fatalf("airdrop at index 0 minted %v", b)
	}
	if c := env.collection(t); c.TotalSupply != 0 {
		t.Fatalf("total supply %d", c.TotalSupply)
	}
}

func TestSupplyBoundary(t *testing.T) {
	env := setupTestEnv(t, 1)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	err = env.airdrop(t, 1, solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	c := env.collection(t)
	if c.TotalSupply != c.MaxSupply {
		t.Fatalf("supply %d/%d", c.TotalSupply, c.MaxSupply)
	}

	err = env.issue(t, 2)
	if err != nil {
		t.Fatalf("issue at total == max %v", err)
	}
	err = env.airdrop(t, 2, solana.NewWallet().PublicKey())
	if !errors.Is(err, ErrSoldOut) {
		t.Fatalf("claim at total == max %v", err)
	}
}

// sold out is checked before the instruction list is read
func TestSoldOutWithoutApproval(t *testing.T) {
	env := setupTestEnv(t, 1)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	err = env.airdrop(t, 1, solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	err = env.issue(t, 2)
	if err != nil {
		t.Fatal(err)
	}

	buyer := solana.NewWallet().PublicKey()
	ix := env.builder.AirdropPlaceholder(buyer, env.admin.PublicKey(), env.owner.PublicKey(), 2)
	err = env.process(t, env.admin, ix)
	if !errors.Is(err, ErrSoldOut) {
		t.Fatalf("sold out airdrop at index 0 %v", err)
	}
	var ie *runtime.InstructionError
	if !errors.As(err, &ie) || ie.Index != 0 {
		t.Fatalf("sold out instruction %v", err)
	}
	if acc := env.recipientAccount(t, 2, buyer); acc != nil {
		t.Fatalf("recipient account created %v", acc)
	}
}

// doubleMintProgram is a token program that mints twice the requested amount.
type doubleMintProgram struct {
	*token.Program
}

func (p doubleMintProgram) Process(ctx context.Context, ic *runtime.InvokeContext, ix *runtime.Instruction) error {
	if len(ix.Data) != 9 || ix.Data[0] != spltoken.Instruction_MintTo {
		return p.Program.Process(ctx, ic, ix)
	}
	inst, err := spltoken.DecodeInstruction(ix.Accounts, ix.Data)
	if err != nil {
		return err
	}
	mt, ok := inst.Impl.(*spltoken.MintTo)
	if !ok {
		return p.Program.Process(ctx, ic, ix)
	}
	mint, _ := ix.Account(0)
	dest, _ := ix.Account(1)
	auth, _ := ix.Account(2)
	return p.Program.Process(ctx, ic, token.NewMintToInstruction(mint, dest, auth, *mt.Amount*2))
}

func TestInvalidBalancePostMint(t *testing.T) {
	env := setupTestEnv(t, 10)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	env.rt.AddProgram(doubleMintProgram{token.NewProgram()})

	buyer := solana.NewWallet().PublicKey()
	err = env.airdrop(t, 1, buyer)
	if !errors.Is(err, ErrInvalidBalancePostMint) {
		t.Fatalf("double mint %v", err)
	}
	if c := env.collection(t); c.TotalSupply != 0 {
		t.Fatalf("total supply after double mint %d", c.TotalSupply)
	}
	_, mint, err := ReadPlaceholder(env.store, DefaultProgramID, env.owner.PublicKey(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if mint.Supply != 0 || mint.MintAuthority == nil {
		t.Fatalf("mint after double mint %v", mint)
	}
	if acc := env.recipientAccount(t, 1, buyer); acc != nil {
		t.Fatalf("recipient account kept %v", acc)
	}

	env.rt.AddProgram(token.NewProgram())
	err = env.airdrop(t, 1, buyer)
	if err != nil {
		t.Fatal(err)
	}
}

func TestGuards(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	cases := []struct {
		check check
		err   error
	}{
		{notLocked(&Protocol{}), nil},
		{notLocked(&Protocol{Locked: true}), ErrProtocolLocked},
		{identityMatches(a, a), nil},
		{identityMatches(a, b), ErrUnauthorizedAdmin},
		{supplyNotExceeded(&Collection{TotalSupply: 1, MaxSupply: 1}), nil},
		{supplyNotExceeded(&Collection{TotalSupply: 2, MaxSupply: 1}), ErrSoldOut},
		{supplyAvailable(&Collection{TotalSupply: 0, MaxSupply: 1}), nil},
		{supplyAvailable(&Collection{TotalSupply: 1, MaxSupply: 1}), ErrSoldOut},
	}
	for i, c := range cases {
		err := c.check()
		if c.err == nil && err != nil || c.err != nil && !errors.Is(err, c.err) {
			t.Fatalf("case %d: %v", i, err)
		}
	}

	err := checks(notLocked(&Protocol{Locked: true}), identityMatches(a, b))
	if !errors.Is(err, ErrProtocolLocked) {
		t.Fatalf("first failure %v", err)
	}
	err = checks(notLocked(&Protocol{}), identityMatches(a, b), supplyAvailable(&Collection{}))
	if !errors.Is(err, ErrUnauthorizedAdmin) {
		t.Fatalf("second failure %v", err)
	}
}

func TestProtocolLock(t *testing.T) {
	env := setupTestEnv(t, 10)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	err = env.process(t, env.admin, env.builder.SetProtocolLock(env.admin.PublicKey(), true))
	if err != nil {
		t.Fatal(err)
	}
	err = env.issue(t, 2)
	if !errors.Is(err, ErrProtocolLocked) {
		t.Fatalf("issue while locked %v", err)
	}
	buyer := solana.NewWallet().PublicKey()
	err = env.airdrop(t, 1, buyer)
	if !errors.Is(err, ErrProtocolLocked) {
		t.Fatalf("claim while locked %v", err)
	}

	stranger, _ := solana.NewRandomPrivateKey()
	err = env.process(t, stranger, env.builder.SetProtocolLock(stranger.PublicKey(), false))
	if !errors.Is(err, ErrUnauthorizedAdmin) {
		t.Fatalf("stranger unlock %v", err)
	}
	err = env.process(t, env.admin, env.builder.SetProtocolLock(env.admin.PublicKey(), false))
	if err != nil {
		t.Fatal(err)
	}
	err = env.airdrop(t, 1, buyer)
	if err != nil {
		t.Fatal(err)
	}
}

func TestUnauthorizedPayer(t *testing.T) {
	env := setupTestEnv(t, 10)
	err := env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	buyer := solana.NewWallet().PublicKey()
	stranger, _ := solana.NewRandomPrivateKey()
	env.rt.Fund(stranger.PublicKey(), testLamports)

	ix := env.builder.AirdropPlaceholder(buyer, stranger.PublicKey(), env.owner.PublicKey(), 1)
	err = env.process(t, stranger, env.approval(t, env.admin, buyer), ix)
	if !errors.Is(err, ErrUnauthorizedAdmin) {
		t.Fatalf("stranger payer %v", err)
	}

	ix = env.builder.CreatePlaceholder(stranger.PublicKey(), env.owner.PublicKey(), 2, testURI)
	err = env.process(t, stranger, ix)
	if !errors.Is(err, ErrAccountNotInitialized) {
		t.Fatalf("issue without admin state %v", err)
	}
}

func TestAddressConstraints(t *testing.T) {
	env := setupTestEnv(t, 10)
	ix := env.builder.CreatePlaceholder(env.admin.PublicKey(), env.owner.PublicKey(), 1, testURI)
	ix.Accounts[4] = solana.Meta(solana.NewWallet().PublicKey()).WRITE()
	err := env.process(t, env.admin, ix)
	if !errors.Is(err, ErrConstraintSeeds) {
		t.Fatalf("foreign mint %v", err)
	}

	ix = env.builder.CreatePlaceholder(env.admin.PublicKey(), env.owner.PublicKey(), 1, testURI)
	ix.Accounts[7] = solana.Meta(solana.TokenProgramID)
	err = env.process(t, env.admin, ix)
	if !errors.Is(err, ErrInvalidProgramId) {
		t.Fatalf("legacy token program %v", err)
	}

	ix = env.builder.CreatePlaceholder(env.admin.PublicKey(), env.owner.PublicKey(), 1, testURI)
	ix.Accounts = ix.Accounts[:6]
	err = env.process(t, env.admin, ix)
	if !errors.Is(err, ErrAccountNotEnoughKeys) {
		t.Fatalf("missing accounts %v", err)
	}

	err = env.issue(t, 1)
	if err != nil {
		t.Fatal(err)
	}
	buyer := solana.NewWallet().PublicKey()
	ix = env.builder.AirdropPlaceholder(buyer, env.admin.PublicKey(), env.owner.PublicKey(), 1)
	ix.Accounts[4] = solana.Meta(solana.NewWallet().PublicKey()).WRITE()
	err = env.process(t, env.admin, env.approval(t, env.admin, buyer), ix)
	if !errors.Is(err, ErrConstraintSeeds) {
		t.Fatalf("foreign recipient account %v", err)
	}

	err = env.process(t, env.admin, runtime.NewInstruction(DefaultProgramID, nil, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	if !errors.Is(err, ErrInstructionFallbackNotFound) {
		t.Fatalf("unknown instruction %v", err)
	}
}

func TestDecodeSignatureInstruction(t *testing.T) {
	admin, _ := solana.NewRandomPrivateKey()
	buyer := solana.NewWallet().PublicKey()
	ix, err := NewAirdropSignatureInstruction(admin, buyer)
	if err != nil {
		t.Fatal(err)
	}
	si, err := DecodeSignatureInstruction(ix)
	if err != nil {
		t.Fatal(err)
	}
	if si.Signer != admin.PublicKey() || si.Message != buyer {
		t.Fatalf("signature instruction %v", si)
	}

	malformed := func(f func(ix *runtime.Instruction)) *runtime.Instruction {
		c := runtime.NewInstruction(ix.ProgramID, nil, append([]byte{}, ix.Data...))
		f(c)
		return c
	}
	for i, bad := range []*runtime.Instruction{
		malformed(func(c *runtime.Instruction) { c.ProgramID = solana.SystemProgramID }),
		malformed(func(c *runtime.Instruction) { c.Data = c.Data[:100] }),
		malformed(func(c *runtime.Instruction) { c.Data[0] = 2 }),
		malformed(func(c *runtime.Instruction) { c.Data[runtime.Ed25519SignatureOffsetsStart+4] = 17 }),
		malformed(func(c *runtime.Instruction) { c.Data[runtime.Ed25519SignatureOffsetsStart+10] = 31 }),
		malformed(func(c *runtime.Instruction) {
			c.Data[runtime.Ed25519SignatureOffsetsStart+12] = 1
			c.Data[runtime.Ed25519SignatureOffsetsStart+13] = 0
		}),
	} {
		_, err := DecodeSignatureInstruction(bad)
		if !errors.Is(err, ErrInstructionsNotCorrect) {
			t.Fatalf("malformed %d: %v", i, err)
		}
	}
}

func TestDeriveAddresses(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	c1, b1, err := CollectionAddress(DefaultProgramID, owner)
	if err != nil {
		t.Fatal(err)
	}
	c2, b2, _ := CollectionAddress(DefaultProgramID, owner)
	if c1 != c2 || b1 != b2 {
		t.Fatal("collection address not deterministic")
	}
	p1, _, _ := PlaceholderAddress(DefaultProgramID, c1, 1)
	p2, _, _ := PlaceholderAddress(DefaultProgramID, c1, 2)
	m1, _, _ := MintAddress(DefaultProgramID, p1)
	auth, _, _ := AuthAddress(DefaultProgramID)
	protocol, _, _ := ProtocolAddress(DefaultProgramID)
	seen := make(map[solana.PublicKey]bool)
	for _, k := range []solana.PublicKey{c1, p1, p2, m1, auth, protocol} {
		if seen[k] {
			t.Fatalf("address collision %s", k)
		}
		seen[k] = true
	}
	other, _, _ := CollectionAddress(solana.SystemProgramID, owner)
	if other == c1 {
		t.Fatal("address independent of the program")
	}
}

func TestRecords(t *testing.T) {
	c := &Collection{Name: "Genesis", Symbol: "GEN", StableId: "s", Whitelist: WhiteList{Wallets: []solana.PublicKey{{1}}}}
	data, err := EncodeRecord(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != c.Space() {
		t.Fatalf("collection space %d encoded %d", c.Space(), len(data))
	}
	data, err = EncodeRecord(&Protocol{Locked: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != ProtocolSpace {
		t.Fatalf("protocol space %d", len(data))
	}
	var p Protocol
	err = DecodeRecord(append(data, 0, 0), &p)
	if err != nil || !p.Locked {
		t.Fatalf("protocol %v %v", p, err)
	}
	var a Admin
	err = DecodeRecord(data, &a)
	if !errors.Is(err, ErrAccountDiscriminatorMismatch) {
		t.Fatalf("wrong record %v", err)
	}

	ph := &Placeholder{Reference: solana.NewWallet().PublicKey().String(), Name: c.Name}
	data, err = EncodeRecord(ph)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) > placeholderSpace(c) {
		t.Fatalf("placeholder space %d encoded %d", placeholderSpace(c), len(data))
	}
}

func TestErrorCodes(t *testing.T) {
	for _, c := range []struct {
		err  *Error
		code int
	}{
		{ErrProtocolLocked, 6000},
		{ErrUnauthorizedAdmin, 6001},
		{ErrInstructionsNotCorrect, 6002},
		{ErrInvalidBalancePostMint, 6003},
		{ErrSoldOut, 6000},
		{ErrConstraintSeeds, 2006},
	} {
		if c.err.Code != c.code {
			t.Fatalf("%s code %d", c.err.Name, c.err.Code)
		}
	}
	err := error(&runtime.InstructionError{Index: 1, Err: ErrSoldOut})
	if !errors.Is(err, ErrSoldOut) || errors.Is(err, ErrProtocolLocked) {
		t.Fatalf("error identity %v", err)
	}
}
