package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MixinNetwork/solfactory/factory"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/MixinNetwork/solfactory/store"
	"github.com/gagliardetto/solana-go"
)

func writeKeygenFile(t *testing.T, dir string, key solana.PrivateKey) string {
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, key.PublicKey().String()+".json")
	err = os.WriteFile(path, data, 0600)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfiguration(t *testing.T) *Configuration {
	dir := t.TempDir()
	admin, _ := solana.NewRandomPrivateKey()
	owner, _ := solana.NewRandomPrivateKey()
	conf := fmt.Sprintf(`
[program]
admin-wallet = "%s"
admin-key = "%s"

[genesis]
lamports = 100000000000
admin-username = "admin"

[genesis.collection]
owner-key = "%s"
name = "Genesis"
symbol = "GEN"
stable-id = "genesis-stable"
max-supply = 10
price = 100

[runtime]
lamports-per-byte-year = 3480
exemption-threshold = "2"
queue-batch = 4
`, admin.PublicKey(), writeKeygenFile(t, dir, admin), writeKeygenFile(t, dir, owner))
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(conf), 0600)
	if err != nil {
		t.Fatal(err)
	}
	c, err := Setup(path)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestConfiguration(t *testing.T) {
	conf := testConfiguration(t)
	if conf.ProgramID() != factory.DefaultProgramID {
		t.Fatalf("program id %s", conf.ProgramID())
	}
	key, err := conf.AdminKey()
	if err != nil || key.PublicKey() != conf.AdminWallet() {
		t.Fatalf("admin key %v", err)
	}
	owner, err := conf.CollectionOwnerKey()
	if err != nil || owner.PublicKey() == conf.AdminWallet() {
		t.Fatalf("owner key %v", err)
	}
	if conf.Genesis.Collection.MaxSupply != 10 || conf.Runtime.QueueBatch != 4 || conf.Runtime.ExemptionThreshold != "2" {
		t.Fatalf("configuration %v", conf)
	}

	conf.Program.AdminWallet = solana.NewWallet().PublicKey().String()
	_, err = conf.AdminKey()
	if err == nil {
		t.Fatal("admin key of another wallet accepted")
	}
	conf.Genesis.Collection.OwnerKey = ""
	_, err = conf.CollectionOwnerKey()
	if err == nil {
		t.Fatal("owner falls back to a mismatched admin key")
	}

	if p := expandHome("~/.solfactory"); strings.HasPrefix(p, "~") {
		t.Fatalf("home not expanded %s", p)
	}
}

func TestWorker(t *testing.T) {
	conf := testConfiguration(t)
	db, err := store.OpenBadger(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	wkr, err := NewWorker(context.Background(), db, conf)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	defer func() {
		cancel()
		<-done
	}()
	go func() {
		wkr.Run(ctx)
		close(done)
	}()
	err = wkr.Setup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	issue, err := wkr.Issue(ctx, 1, "https://example.com/1.json", "")
	if err != nil {
		t.Fatal(err)
	}
	waitReceipt(t, wkr, issue)
	buyer := solana.NewWallet().PublicKey()
	airdrop, err := wkr.Airdrop(ctx, 1, buyer, "")
	if err != nil {
		t.Fatal(err)
	}
	waitReceipt(t, wkr, airdrop)

	out, err := wkr.Show(1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Placeholder for Genesis") || !strings.Contains(out, "1/10") {
		t.Fatalf("show %s", out)
	}

	again, err := wkr.Issue(ctx, 1, "https://example.com/1.json", "")
	if err != nil || again != issue {
		t.Fatalf("issue trace id %s %s %v", again, issue, err)
	}
	retry, err := wkr.Issue(ctx, 1, "https://example.com/1.json", "retry")
	if err != nil || retry == issue {
		t.Fatalf("retry trace id %s %v", retry, err)
	}
}

func waitReceipt(t *testing.T, wkr *Worker, traceId string) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		r, err := wkr.Receipt(traceId)
		if err != nil {
			t.Fatal(err)
		}
		if r != nil {
			if r.State != runtime.TransactionStateDone {
				t.Fatalf("receipt %s %d %s", traceId, r.State, r.Error)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("transaction %s not processed", traceId)
}
