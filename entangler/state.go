package entangler

import (
	"bytes"
	"fmt"

	"github.com/MixinNetwork/entangler/token"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	MaxEntryKeySize         = 32
	MaxRoyalties     uint16 = 10000
	discriminatorLen        = 8
)

var (
	EntanglerStateDiscriminator      = []byte{111, 22, 90, 132, 143, 229, 18, 246}
	EntangledCollectionDiscriminator = []byte{185, 244, 55, 234, 11, 82, 36, 28}
	CollectionEntryDiscriminator     = []byte{27, 142, 48, 42, 147, 62, 205, 3}
	EntangledPairDiscriminator       = []byte{133, 118, 20, 210, 1, 54, 172, 116}
)

type PairState uint8

const (
	PairStateDisentangled PairState = 10
	PairStateEntangled    PairState = 11
	PairStateBurned       PairState = 12
)

func (s PairState) String() string {
	switch s {
	case PairStateDisentangled:
		return "disentangled"
	case PairStateEntangled:
		return "entangled"
	case PairStateBurned:
		return "burned"
	}
	return fmt.Sprintf("PairState(%d)", uint8(s))
}

type EntanglerState struct {
	Admin   solana.PublicKey
	Earner  solana.PublicKey
	FeeMint solana.PublicKey
	Price   uint64
}

type EntangledCollection struct {
	Id                      solana.PublicKey
	OriginalCollectionMint  solana.PublicKey
	EntangledCollectionMint solana.PublicKey
	Royalties               uint16
	OneWay                  bool
}

type CollectionEntry struct {
	Id  solana.PublicKey
	Key string
}

type EntangledPair struct {
	OriginalMint  solana.PublicKey
	EntangledMint solana.PublicKey
	State         PairState
}

func ValidateEntryKey(key string) error {
	if key == "" || len(key) > MaxEntryKeySize {
		return NewError(CodeInvalidArgument, "entry key length")
	}
	for _, c := range []byte(key) {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return NewError(CodeInvalidArgument, "entry key character")
		}
	}
	return nil
}

func DecodeEntanglerState(acc *token.Account) (*EntanglerState, error) {
	var s EntanglerState
	err := decodeRecord(acc, EntanglerStateDiscriminator, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func DecodeEntangledCollection(acc *token.Account) (*EntangledCollection, error) {
	var c EntangledCollection
	err := decodeRecord(acc, EntangledCollectionDiscriminator, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func DecodeCollectionEntry(acc *token.Account) (*CollectionEntry, error) {
	var e CollectionEntry
	err := decodeRecord(acc, CollectionEntryDiscriminator, &e)
	if err != nil {
		return nil, err
	}
	if ValidateEntryKey(e.Key) != nil {
		return nil, NewError(CodeInvalidDiscriminator, "collection entry key")
	}
	return &e, nil
}

func DecodeEntangledPair(acc *token.Account) (*EntangledPair, error) {
	var p EntangledPair
	err := decodeRecord(acc, EntangledPairDiscriminator, &p)
	if err != nil {
		return nil, err
	}
	switch p.State {
	case PairStateDisentangled, PairStateEntangled, PairStateBurned:
	default:
		return nil, NewError(CodeInvalidDiscriminator, "entangled pair state")
	}
	return &p, nil
}

func encodeRecord(address solana.PublicKey, discriminator []byte, v interface{}) *token.Account {
	buf := bytes.NewBuffer(append([]byte{}, discriminator...))
	err := bin.NewBorshEncoder(buf).Encode(v)
	if err != nil {
		panic(err)
	}
	return &token.Account{
		Address: address,
		Owner:   ProgramID,
		Data:    buf.Bytes(),
	}
}

func decodeRecord(acc *token.Account, discriminator []byte, v interface{}) error {
	if acc == nil {
		return NewError(CodeNotInitialized, "account")
	}
	if acc.Owner != ProgramID {
		return NewError(CodeForeignAccount, acc.Address.String())
	}
	if len(acc.Data) < discriminatorLen || !bytes.Equal(acc.Data[:discriminatorLen], discriminator) {
		return NewError(CodeInvalidDiscriminator, acc.Address.String())
	}
	dec := bin.NewBorshDecoder(acc.Data[discriminatorLen:])
	err := dec.Decode(v)
	if err != nil {
		return &Error{Code: CodeInvalidDiscriminator, Precondition: acc.Address.String(), Err: err}
	}
	if dec.Remaining() != 0 {
		return NewError(CodeInvalidDiscriminator, fmt.Sprintf("%s trailing %d bytes", acc.Address, dec.Remaining()))
	}
	return nil
}
