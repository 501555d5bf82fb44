package entangler

import (
	"context"
	"errors"
	"time"

	"github.com/MixinNetwork/entangler/token"
	"github.com/MixinNetwork/mixin/common"
	"github.com/allegro/bigcache/v3"
	"github.com/gagliardetto/solana-go"
)

// Query reads records outside of any request. Collections and entries never
// change once written, so their accounts are cached.
type Query struct {
	store Store
	cache *bigcache.BigCache
}

func NewQuery(ctx context.Context, store Store, ttl time.Duration) (*Query, error) {
	cache, err := bigcache.New(ctx, bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, err
	}
	return &Query{store: store, cache: cache}, nil
}

func (q *Query) ReadEntanglerState() (*EntanglerState, error) {
	acc, err := q.store.ReadAccount(StateAddress())
	if err != nil || acc == nil {
		return nil, err
	}
	return DecodeEntanglerState(acc)
}

func (q *Query) ReadCollection(id solana.PublicKey) (*EntangledCollection, error) {
	return q.ReadCollectionAt(CollectionAddress(id))
}

func (q *Query) ReadCollectionAt(address solana.PublicKey) (*EntangledCollection, error) {
	acc, err := q.readImmutable(address)
	if err != nil || acc == nil {
		return nil, err
	}
	return DecodeEntangledCollection(acc)
}

func (q *Query) ReadEntry(key string) (*CollectionEntry, error) {
	address, err := EntryAddress(key)
	if err != nil {
		return nil, err
	}
	acc, err := q.readImmutable(address)
	if err != nil || acc == nil {
		return nil, err
	}
	return DecodeCollectionEntry(acc)
}

func (q *Query) ReadPair(id, originalMint solana.PublicKey) (*EntangledPair, error) {
	return q.ReadPairAt(PairAddress(EntangledMintAddress(id, originalMint)))
}

func (q *Query) ReadPairAt(address solana.PublicKey) (*EntangledPair, error) {
	acc, err := q.store.ReadAccount(address)
	if err != nil || acc == nil {
		return nil, err
	}
	return DecodeEntangledPair(acc)
}

func (q *Query) ListCollections(limit int) ([]*EntangledCollection, error) {
	accounts, err := q.store.ListAccounts(ProgramID, EntangledCollectionDiscriminator, limit)
	if err != nil {
		return nil, err
	}
	collections := make([]*EntangledCollection, 0, len(accounts))
	for _, acc := range accounts {
		c, err := DecodeEntangledCollection(acc)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func (q *Query) ListJournals(offset time.Time, limit int) ([]*Journal, error) {
	return q.store.ListJournals(offset, limit)
}

func (q *Query) ReadJournal(traceId string) (*Journal, error) {
	return q.store.ReadJournal(traceId)
}

// Ledger returns a token ledger over the committed accounts. Every write
// through it fails.
func (q *Query) Ledger() *token.Ledger {
	return token.NewLedger(&snapshot{store: q.store}, solana.PublicKey{})
}

func (q *Query) readImmutable(address solana.PublicKey) (*token.Account, error) {
	key := address.String()
	val, err := q.cache.Get(key)
	if err == nil {
		queryCacheTotal.WithLabelValues("hit").Inc()
		var acc token.Account
		err = common.MsgpackUnmarshal(val, &acc)
		return &acc, err
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, err
	}
	queryCacheTotal.WithLabelValues("miss").Inc()

	acc, err := q.store.ReadAccount(address)
	if err != nil || acc == nil {
		return nil, err
	}
	err = q.cache.Set(key, common.MsgpackMarshalPanic(acc))
	return acc, err
}

var errReadOnly = errors.New("read only accounts")

type snapshot struct {
	store Store
}

func (s *snapshot) ReadAccount(address solana.PublicKey) (*token.Account, error) {
	return s.store.ReadAccount(address)
}

func (s *snapshot) WriteAccount(acc *token.Account) error {
	return errReadOnly
}

func (s *snapshot) DeleteAccount(address solana.PublicKey) error {
	return errReadOnly
}
