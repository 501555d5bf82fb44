package entangler

import (
	"context"
	"time"

	"github.com/MixinNetwork/entangler/token"
	"github.com/MixinNetwork/mixin/crypto"
	"github.com/gagliardetto/solana-go"
)

type Txn interface {
	token.Accounts

	ReadJournal(traceId string) (*Journal, error)
	WriteJournal(j *Journal) error
}

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)

	RunTransaction(ctx context.Context, fn func(Txn) error) error

	ReadAccount(address solana.PublicKey) (*token.Account, error)
	ListAccounts(owner solana.PublicKey, discriminator []byte, limit int) ([]*token.Account, error)

	ReadJournal(traceId string) (*Journal, error)
	ListJournals(offset time.Time, limit int) ([]*Journal, error)
}

// Journal is the record of an applied request, written in the same
// transaction as its effects.
type Journal struct {
	TraceId     string
	Signer      solana.PublicKey
	Instruction string
	Digest      crypto.Hash
	Data        []byte
	CreatedAt   time.Time
}
