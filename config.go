package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/MixinNetwork/solfactory/factory"
	"github.com/MixinNetwork/solfactory/runtime"
	"github.com/gagliardetto/solana-go"
	"github.com/pelletier/go-toml"
)

type ProgramConfiguration struct {
	ProgramId   string `toml:"program-id"`
	AdminWallet string `toml:"admin-wallet"`
	AdminKey    string `toml:"admin-key"`
}

type CollectionConfiguration struct {
	OwnerKey      string `toml:"owner-key"`
	Reference     string `toml:"reference"`
	Name          string `toml:"name"`
	Symbol        string `toml:"symbol"`
	StableId      string `toml:"stable-id"`
	SaleStartTime int64  `toml:"sale-start-time"`
	MaxSupply     uint64 `toml:"max-supply"`
	Price         uint64 `toml:"price"`
}

type GenesisConfiguration struct {
	Lamports      uint64                  `toml:"lamports"`
	AdminUsername string                  `toml:"admin-username"`
	Collection    CollectionConfiguration `toml:"collection"`
}

type Configuration struct {
	Program ProgramConfiguration  `toml:"program"`
	Genesis GenesisConfiguration  `toml:"genesis"`
	Runtime runtime.Configuration `toml:"runtime"`
}

func Setup(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf Configuration
	err = toml.Unmarshal(f, &conf)
	if err != nil {
		return nil, err
	}
	if conf.Program.ProgramId == "" {
		conf.Program.ProgramId = factory.DefaultProgramID.String()
	}
	if _, err := solana.PublicKeyFromBase58(conf.Program.ProgramId); err != nil {
		return nil, fmt.Errorf("invalid program id %s", conf.Program.ProgramId)
	}
	if _, err := solana.PublicKeyFromBase58(conf.Program.AdminWallet); err != nil {
		return nil, fmt.Errorf("invalid admin wallet %s", conf.Program.AdminWallet)
	}
	conf.Program.AdminKey = expandHome(conf.Program.AdminKey)
	conf.Genesis.Collection.OwnerKey = expandHome(conf.Genesis.Collection.OwnerKey)
	return &conf, nil
}

func (conf *Configuration) ProgramID() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(conf.Program.ProgramId)
}

func (conf *Configuration) AdminWallet() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(conf.Program.AdminWallet)
}

// AdminKey loads the admin keypair and requires it to be the admin wallet.
func (conf *Configuration) AdminKey() (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(conf.Program.AdminKey)
	if err != nil {
		return nil, err
	}
	if key.PublicKey() != conf.AdminWallet() {
		return nil, fmt.Errorf("admin key %s is not the admin wallet %s", key.PublicKey(), conf.AdminWallet())
	}
	return key, nil
}

// CollectionOwnerKey falls back to the admin key when no owner key is set.
func (conf *Configuration) CollectionOwnerKey() (solana.PrivateKey, error) {
	if conf.Genesis.Collection.OwnerKey == "" {
		return conf.AdminKey()
	}
	return solana.PrivateKeyFromSolanaKeygenFile(conf.Genesis.Collection.OwnerKey)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		usr, _ := user.Current()
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}
