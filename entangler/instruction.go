package entangler

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gofrs/uuid"
)

var (
	SetEntanglerStateIdentifier     = []byte{3, 157, 167, 221, 222, 29, 49, 14}
	CreateCollectionIdentifier      = []byte{156, 251, 92, 54, 233, 2, 16, 82}
	CreateCollectionEntryIdentifier = []byte{167, 139, 193, 61, 122, 154, 187, 22}
	InitializePairIdentifier        = []byte{177, 114, 226, 34, 186, 150, 5, 245}
	EntangleIdentifier              = []byte{237, 132, 7, 235, 155, 246, 220, 76}
	DisentangleIdentifier           = []byte{11, 10, 198, 218, 194, 86, 43, 93}
	BurnOriginalIdentifier          = []byte{233, 177, 56, 184, 8, 125, 162, 159}
)

// Instruction is encoded as its 8 byte identifier followed by the borsh
// encoding of its fields, the instruction arguments first and then the
// accounts it refers to.
type Instruction interface {
	Name() string
	Identifier() []byte

	execute(inv *invocation) error
}

type SetEntanglerState struct {
	Admin   solana.PublicKey
	Earner  solana.PublicKey
	Price   uint64
	FeeMint solana.PublicKey
}

type CreateCollection struct {
	Id                     solana.PublicKey
	Royalties              uint16
	OneWay                 bool
	OriginalCollectionMint solana.PublicKey
}

type CreateCollectionEntry struct {
	Key     string
	Id      solana.PublicKey
	FeeMint solana.PublicKey
	Earner  solana.PublicKey
}

type InitializePair struct {
	Id           solana.PublicKey
	OriginalMint solana.PublicKey
}

type Entangle struct {
	Id           solana.PublicKey
	OriginalMint solana.PublicKey
}

type Disentangle struct {
	Id           solana.PublicKey
	OriginalMint solana.PublicKey
}

type BurnOriginal struct {
	Id           solana.PublicKey
	OriginalMint solana.PublicKey
}

func (*SetEntanglerState) Name() string     { return "setEntanglerState" }
func (*CreateCollection) Name() string      { return "createCollection" }
func (*CreateCollectionEntry) Name() string { return "createCollectionEntry" }
func (*InitializePair) Name() string        { return "initializePair" }
func (*Entangle) Name() string              { return "entangle" }
func (*Disentangle) Name() string           { return "disentangle" }
func (*BurnOriginal) Name() string          { return "burnOriginal" }

func (*SetEntanglerState) Identifier() []byte     { return SetEntanglerStateIdentifier }
func (*CreateCollection) Identifier() []byte      { return CreateCollectionIdentifier }
func (*CreateCollectionEntry) Identifier() []byte { return CreateCollectionEntryIdentifier }
func (*InitializePair) Identifier() []byte        { return InitializePairIdentifier }
func (*Entangle) Identifier() []byte              { return EntangleIdentifier }
func (*Disentangle) Identifier() []byte           { return DisentangleIdentifier }
func (*BurnOriginal) Identifier() []byte          { return BurnOriginalIdentifier }

func EncodeInstruction(ix Instruction) []byte {
	buf := bytes.NewBuffer(append([]byte{}, ix.Identifier()...))
	err := bin.NewBorshEncoder(buf).Encode(ix)
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func DecodeInstruction(b []byte) (Instruction, error) {
	if len(b) < discriminatorLen {
		return nil, NewError(CodeInvalidArgument, "instruction identifier")
	}
	var ix Instruction
	switch id := b[:discriminatorLen]; {
	case bytes.Equal(id, SetEntanglerStateIdentifier):
		ix = new(SetEntanglerState)
	case bytes.Equal(id, CreateCollectionIdentifier):
		ix = new(CreateCollection)
	case bytes.Equal(id, CreateCollectionEntryIdentifier):
		ix = new(CreateCollectionEntry)
	case bytes.Equal(id, InitializePairIdentifier):
		ix = new(InitializePair)
	case bytes.Equal(id, EntangleIdentifier):
		ix = new(Entangle)
	case bytes.Equal(id, DisentangleIdentifier):
		ix = new(Disentangle)
	case bytes.Equal(id, BurnOriginalIdentifier):
		ix = new(BurnOriginal)
	default:
		return nil, NewError(CodeInvalidArgument, fmt.Sprintf("instruction identifier %x", id))
	}
	dec := bin.NewBorshDecoder(b[discriminatorLen:])
	err := dec.Decode(ix)
	if err != nil {
		return nil, &Error{Code: CodeInvalidArgument, Precondition: ix.Name(), Err: err}
	}
	if dec.Remaining() != 0 {
		return nil, NewError(CodeInvalidArgument, ix.Name()+" trailing bytes")
	}
	return ix, nil
}

// Request is an instruction signed by the account that pays for it and
// holds the tokens it moves. TraceId makes the request idempotent.
type Request struct {
	TraceId     string
	Signer      solana.PublicKey
	Instruction []byte
	Signature   solana.Signature
}

func NewRequest(traceId string, ix Instruction, priv solana.PrivateKey) (*Request, error) {
	r := &Request{
		TraceId:     traceId,
		Signer:      priv.PublicKey(),
		Instruction: EncodeInstruction(ix),
	}
	return r, r.Sign(priv)
}

func (r *Request) Payload() []byte {
	id := uuid.FromStringOrNil(r.TraceId)
	payload := append([]byte{}, id.Bytes()...)
	payload = append(payload, r.Signer.Bytes()...)
	return append(payload, r.Instruction...)
}

func (r *Request) Sign(priv solana.PrivateKey) error {
	if priv.PublicKey() != r.Signer {
		return fmt.Errorf("signer mismatch %s %s", priv.PublicKey(), r.Signer)
	}
	sig, err := priv.Sign(r.Payload())
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}
