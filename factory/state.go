package factory

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"reflect"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

const DiscriminatorSize = 8

// Space of each record, discriminator and empty variable fields included.
const (
	ProtocolSpace    = 8 + 1
	AdminSpace       = 8 + 32 + 4 + 8
	CollectionSpace  = 8 + 32 + 4 + 4 + 32 + 8 + 8 + 8 + 8 + 4 + 4 + 8 + 8
	PlaceholderSpace = 8 + 8 + 32 + 4 + 2 + 2 + 8 + 8
)

type Protocol struct {
	Locked bool
}

type Admin struct {
	Publickey   solana.PublicKey
	Username    string
	Initialized int64
}

type WhiteList struct {
	Wallets []solana.PublicKey
}

type Collection struct {
	Reference          solana.PublicKey
	Name               string
	Symbol             string
	Owner              solana.PublicKey
	SaleStartTime      int64
	MaxSupply          uint64
	TotalSupply        uint64
	Price              uint64
	StableId           string
	Whitelist          WhiteList
	WhitelistStartTime int64
	WhitelistPrice     uint64
}

type Placeholder struct {
	Id         uint64
	Collection solana.PublicKey
	Reference  string
	Name       string
	Price      uint64
	TimeStamp  int64
}

func (c *Collection) Space() int {
	return CollectionSpace + len(c.Name) + len(c.Symbol) + len(c.StableId) + 32*len(c.Whitelist.Wallets)
}

func adminSpace(username string) int {
	return AdminSpace + len(username)
}

// placeholderSpace leaves room for the base58 reference and the copied
// collection strings.
func placeholderSpace(c *Collection) int {
	return PlaceholderSpace + 32 + len(c.Name) + len(c.Symbol) + 8 + 8
}

func recordName(v interface{}) string {
	switch v.(type) {
	case *Protocol, Protocol:
		return "Protocol"
	case *Admin, Admin:
		return "Admin"
	case *Collection, Collection:
		return "Collection"
	case *Placeholder, Placeholder:
		return "Placeholder"
	}
	panic(fmt.Sprintf("%T", v))
}

func AccountDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:DiscriminatorSize]
}

// EncodeRecord prefixes the borsh encoding of v with its account
// discriminator. Pointers are encoded as the value they point to.
func EncodeRecord(v interface{}) ([]byte, error) {
	data, err := borsh.Serialize(reflect.Indirect(reflect.ValueOf(v)).Interface())
	if err != nil {
		return nil, err
	}
	return append(AccountDiscriminator(recordName(v)), data...), nil
}

// DecodeRecord accepts trailing bytes, records live in accounts allocated
// larger than their encoding.
func DecodeRecord(data []byte, v interface{}) error {
	if len(data) < DiscriminatorSize {
		return ErrAccountDidNotDeserialize
	}
	if !bytes.Equal(data[:DiscriminatorSize], AccountDiscriminator(recordName(v))) {
		return ErrAccountDiscriminatorMismatch
	}
	err := borsh.Deserialize(v, data[DiscriminatorSize:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAccountDidNotDeserialize, err)
	}
	return nil
}
