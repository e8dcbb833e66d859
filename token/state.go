package token

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"github.com/near/borsh-go"
)

const (
	MintBaseSize    = 82
	AccountBaseSize = 165
	AccountTypeSize = 1
	tlvHeaderSize   = 4
)

type AccountType uint8

const (
	AccountTypeUninitialized AccountType = 0
	AccountTypeMint          AccountType = 1
	AccountTypeAccount       AccountType = 2
)

type ExtensionType uint16

const (
	ExtensionUninitialized      ExtensionType = 0
	ExtensionMintCloseAuthority ExtensionType = 3
	ExtensionImmutableOwner     ExtensionType = 7
	ExtensionPermanentDelegate  ExtensionType = 12
	ExtensionMetadataPointer    ExtensionType = 18
	ExtensionTokenMetadata      ExtensionType = 19
)

// Length of the extension value, variable length extensions return 0.
func (e ExtensionType) Length() int {
	switch e {
	case ExtensionMintCloseAuthority, ExtensionPermanentDelegate:
		return 32
	case ExtensionMetadataPointer:
		return 64
	}
	return 0
}

// MintSize is the space of a mint holding the fixed length extensions.
func MintSize(exts ...ExtensionType) int {
	if len(exts) == 0 {
		return MintBaseSize
	}
	return extendedSize(exts)
}

func AccountSize(exts ...ExtensionType) int {
	if len(exts) == 0 {
		return AccountBaseSize
	}
	return extendedSize(exts)
}

func extendedSize(exts []ExtensionType) int {
	size := AccountBaseSize + AccountTypeSize
	for _, e := range exts {
		size += tlvHeaderSize + e.Length()
	}
	return size
}

type tlvEntry struct {
	Type  ExtensionType
	Value []byte
}

type tlvState struct {
	entries []*tlvEntry
}

func (s *tlvState) extension(t ExtensionType) []byte {
	for _, e := range s.entries {
		if e.Type == t {
			return e.Value
		}
	}
	return nil
}

func (s *tlvState) HasExtension(t ExtensionType) bool {
	for _, e := range s.entries {
		if e.Type == t {
			return true
		}
	}
	return false
}

func (s *tlvState) setExtension(t ExtensionType, val []byte) {
	for _, e := range s.entries {
		if e.Type == t {
			e.Value = val
			return
		}
	}
	s.entries = append(s.entries, &tlvEntry{Type: t, Value: val})
}

func (s *tlvState) Extensions() []ExtensionType {
	exts := make([]ExtensionType, len(s.entries))
	for i, e := range s.entries {
		exts[i] = e.Type
	}
	return exts
}

func (s *tlvState) packedLen(base int) int {
	if len(s.entries) == 0 {
		return base
	}
	size := AccountBaseSize + AccountTypeSize
	for _, e := range s.entries {
		size += tlvHeaderSize + len(e.Value)
	}
	return size
}

func (s *tlvState) pack(data []byte, at AccountType) error {
	if len(data) <= AccountBaseSize {
		return nil
	}
	data[AccountBaseSize] = byte(at)
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	for _, e := range s.entries {
		err := enc.WriteUint16(uint16(e.Type), bin.LE)
		if err != nil {
			return err
		}
		err = enc.WriteUint16(uint16(len(e.Value)), bin.LE)
		if err != nil {
			return err
		}
		err = enc.WriteBytes(e.Value, false)
		if err != nil {
			return err
		}
	}
	copy(data[AccountBaseSize+AccountTypeSize:], buf.Bytes())
	return nil
}

func (s *tlvState) unpack(data []byte, at AccountType) error {
	if len(data) <= AccountBaseSize {
		return nil
	}
	if t := AccountType(data[AccountBaseSize]); t != at && t != AccountTypeUninitialized {
		return fmt.Errorf("%w: account type %d", ErrInvalidAccountData, t)
	}
	dec := bin.NewBinDecoder(data[AccountBaseSize+AccountTypeSize:])
	for dec.Remaining() >= tlvHeaderSize {
		t, err := dec.ReadUint16(bin.LE)
		if err != nil {
			return err
		}
		l, err := dec.ReadUint16(bin.LE)
		if err != nil {
			return err
		}
		if ExtensionType(t) == ExtensionUninitialized {
			break
		}
		if int(l) > dec.Remaining() {
			return fmt.Errorf("%w: extension %d overflows data", ErrInvalidAccountData, t)
		}
		val, err := dec.ReadNBytes(int(l))
		if err != nil {
			return err
		}
		s.entries = append(s.entries, &tlvEntry{Type: ExtensionType(t), Value: append([]byte{}, val...)})
	}
	return nil
}

// Mint is the token program mint followed by the token-2022 extensions.
type Mint struct {
	spltoken.Mint

	tlvState
}

func UnpackMint(data []byte) (*Mint, error) {
	if len(data) != MintBaseSize && len(data) <= AccountBaseSize {
		return nil, fmt.Errorf("%w: mint size %d", ErrInvalidAccountData, len(data))
	}
	m := &Mint{}
	err := m.Mint.UnmarshalWithDecoder(bin.NewBinDecoder(data[:MintBaseSize]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return m, m.unpack(data, AccountTypeMint)
}

func (m *Mint) PackedLen() int {
	return m.packedLen(MintBaseSize)
}

// Pack writes the mint into data, which must be large enough.
func (m *Mint) Pack(data []byte) error {
	if len(data) < m.PackedLen() {
		return fmt.Errorf("%w: mint needs %d has %d", ErrInvalidAccountData, m.PackedLen(), len(data))
	}
	base, err := bin.MarshalBin(m.Mint)
	if err != nil {
		return err
	}
	for i := range data {
		data[i] = 0
	}
	copy(data, base)
	return m.pack(data, AccountTypeMint)
}

func (m *Mint) CloseAuthority() (solana.PublicKey, bool) {
	return optionalKey(m.extension(ExtensionMintCloseAuthority))
}

func (m *Mint) PermanentDelegate() (solana.PublicKey, bool) {
	return optionalKey(m.extension(ExtensionPermanentDelegate))
}

type MetadataPointer struct {
	Authority       solana.PublicKey
	MetadataAddress solana.PublicKey
}

func (m *Mint) MetadataPointer() (*MetadataPointer, bool) {
	val := m.extension(ExtensionMetadataPointer)
	if len(val) != 64 {
		return nil, false
	}
	return &MetadataPointer{
		Authority:       solana.PublicKeyFromBytes(val[:32]),
		MetadataAddress: solana.PublicKeyFromBytes(val[32:]),
	}, true
}

func (m *Mint) Metadata() (*TokenMetadata, error) {
	val := m.extension(ExtensionTokenMetadata)
	if val == nil {
		return nil, ErrExtensionNotFound
	}
	var md TokenMetadata
	err := borsh.Deserialize(&md, val)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return &md, nil
}

func (m *Mint) setMetadata(md *TokenMetadata) error {
	val, err := borsh.Serialize(*md)
	if err != nil {
		return err
	}
	m.setExtension(ExtensionTokenMetadata, val)
	return nil
}

type MetadataField struct {
	Key   string
	Value string
}

type TokenMetadata struct {
	UpdateAuthority    solana.PublicKey
	Mint               solana.PublicKey
	Name               string
	Symbol             string
	Uri                string
	AdditionalMetadata []MetadataField
}

// TLVSize is the space the metadata takes inside the mint, header included.
func (md *TokenMetadata) TLVSize() int {
	size := tlvHeaderSize + 32 + 32
	size += 4 + len(md.Name)
	size += 4 + len(md.Symbol)
	size += 4 + len(md.Uri)
	size += 4
	for _, f := range md.AdditionalMetadata {
		size += 4 + len(f.Key) + 4 + len(f.Value)
	}
	return size
}

func (md *TokenMetadata) Field(key string) (string, bool) {
	for _, f := range md.AdditionalMetadata {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (md *TokenMetadata) update(field Field, value string) {
	switch field.Enum {
	case FieldName:
		md.Name = value
	case FieldSymbol:
		md.Symbol = value
	case FieldUri:
		md.Uri = value
	case FieldKey:
		for i, f := range md.AdditionalMetadata {
			if f.Key == field.Key.Name {
				md.AdditionalMetadata[i].Value = value
				return
			}
		}
		md.AdditionalMetadata = append(md.AdditionalMetadata, MetadataField{Key: field.Key.Name, Value: value})
	}
}

// Account is the token program account followed by the token-2022
// extensions.
type Account struct {
	spltoken.Account

	tlvState
}

func UnpackAccount(data []byte) (*Account, error) {
	if len(data) < AccountBaseSize {
		return nil, fmt.Errorf("%w: account size %d", ErrInvalidAccountData, len(data))
	}
	a := &Account{}
	err := a.Account.UnmarshalWithDecoder(bin.NewBinDecoder(data[:AccountBaseSize]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return a, a.unpack(data, AccountTypeAccount)
}

func (a *Account) PackedLen() int {
	return a.packedLen(AccountBaseSize)
}

func (a *Account) Pack(data []byte) error {
	if len(data) < a.PackedLen() {
		return fmt.Errorf("%w: account needs %d has %d", ErrInvalidAccountData, a.PackedLen(), len(data))
	}
	base, err := bin.MarshalBin(a.Account)
	if err != nil {
		return err
	}
	for i := range data {
		data[i] = 0
	}
	copy(data, base)
	return a.pack(data, AccountTypeAccount)
}

// optionalKey treats the zero key as absent.
func optionalKey(val []byte) (solana.PublicKey, bool) {
	if len(val) != 32 {
		return solana.PublicKey{}, false
	}
	key := solana.PublicKeyFromBytes(val)
	return key, !key.IsZero()
}
