package entangler_test

import (
	"context"
	"testing"
	"time"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/entangler/store"
	"github.com/MixinNetwork/entangler/token"
	"github.com/gagliardetto/solana-go"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	ctx     context.Context
	store   *store.BadgerStore
	program *entangler.Program
	query   *entangler.Query

	deployer solana.PrivateKey
	creator  solana.PrivateKey
	artist   solana.PrivateKey
	holder   solana.PrivateKey
	earner   solana.PublicKey

	feeMint        solana.PublicKey
	collectionMint solana.PublicKey
}

func newHarness(t *testing.T) *harness {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bs, err := store.OpenInMemory(ctx)
	require.Nil(err)
	t.Cleanup(func() { bs.Close() })

	h := &harness{
		t:              t,
		ctx:            ctx,
		store:          bs,
		deployer:       newKey(t),
		creator:        newKey(t),
		artist:         newKey(t),
		holder:         newKey(t),
		earner:         newKey(t).PublicKey(),
		feeMint:        newKey(t).PublicKey(),
		collectionMint: newKey(t).PublicKey(),
	}
	h.program, err = entangler.NewProgram(bs, h.deployer.PublicKey())
	require.Nil(err)
	h.query, err = entangler.NewQuery(ctx, bs, time.Minute)
	require.Nil(err)

	h.setup(func(l *token.Ledger) {
		deployer := authority(t, h.deployer)
		require.Nil(l.InitializeMint(h.feeMint, 6, h.deployer.PublicKey(), h.deployer.PublicKey()))
		ata, err := l.CreateAssociatedAccount(h.holder.PublicKey(), h.feeMint)
		require.Nil(err)
		require.Nil(l.MintTo(h.feeMint, ata, deployer, 1000))

		_, err = l.CreateNFT(h.collectionMint, authority(t, h.creator), &token.NFTArgs{
			Name:   "Dippies",
			Symbol: "DIP",
			Uri:    "https://example.com/dippies.json",
		})
		require.Nil(err)
	})
	return h
}

func newKey(t *testing.T) solana.PrivateKey {
	priv, err := solana.NewRandomPrivateKey()
	require.Nil(t, err)
	return priv
}

func authority(t *testing.T, priv solana.PrivateKey) token.Authority {
	auth, err := token.KeyAuthority(priv)
	require.Nil(t, err)
	return auth
}

// setup writes token fixtures through a ledger bound to no program.
func (h *harness) setup(fn func(l *token.Ledger)) {
	err := h.store.RunTransaction(h.ctx, func(txn entangler.Txn) error {
		fn(token.NewLedger(txn, solana.SystemProgramID))
		return nil
	})
	require.Nil(h.t, err)
}

// mintOriginal has the artist create a token that the collection creator
// then verifies as a member, and hands it to owner.
func (h *harness) mintOriginal(owner solana.PublicKey) solana.PublicKey {
	mint := newKey(h.t).PublicKey()
	h.setup(func(l *token.Ledger) {
		artist := authority(h.t, h.artist)
		src, err := l.CreateNFT(mint, artist, &token.NFTArgs{
			Name:                 "Dippie #1",
			Symbol:               "DIP",
			Uri:                  "https://example.com/1.json",
			SellerFeeBasisPoints: 300,
			Collection:           h.collectionMint,
		})
		require.Nil(h.t, err)
		require.Nil(h.t, l.VerifyCollection(mint, h.collectionMint, authority(h.t, h.creator)))
		dst, err := l.CreateAssociatedAccount(owner, mint)
		require.Nil(h.t, err)
		require.Nil(h.t, l.Transfer(src, dst, artist, 1))
	})
	return mint
}

func (h *harness) execute(priv solana.PrivateKey, ix entangler.Instruction) error {
	req, err := entangler.NewRequest(uuid.Must(uuid.NewV4()).String(), ix, priv)
	require.Nil(h.t, err)
	_, err = h.program.Execute(h.ctx, req)
	return err
}

func (h *harness) setState(price uint64) {
	err := h.execute(h.deployer, &entangler.SetEntanglerState{
		Admin:   h.deployer.PublicKey(),
		Earner:  h.earner,
		Price:   price,
		FeeMint: h.feeMint,
	})
	require.Nil(h.t, err)
}

func (h *harness) createCollection(royalties uint16, oneWay bool) solana.PublicKey {
	id := newKey(h.t).PublicKey()
	err := h.execute(h.holder, &entangler.CreateCollection{
		Id:                     id,
		Royalties:              royalties,
		OneWay:                 oneWay,
		OriginalCollectionMint: h.collectionMint,
	})
	require.Nil(h.t, err)
	return id
}

func (h *harness) balance(wallet, mint solana.PublicKey) uint64 {
	amount, err := h.query.Ledger().Balance(wallet, mint)
	require.Nil(h.t, err)
	return amount
}

// requireConserved checks that exactly one side of the pair is outside
// escrow, or that the original is burned with the entangled token outside.
func (h *harness) requireConserved(id, original solana.PublicKey, holder solana.PublicKey) {
	entangled := entangler.EntangledMintAddress(id, original)
	custody := entangler.CustodyAddress()
	pair, err := h.query.ReadPair(id, original)
	require.Nil(h.t, err)
	require.NotNil(h.t, pair)

	oi, ei := h.balance(custody, original), h.balance(custody, entangled)
	oo, eo := h.balance(holder, original), h.balance(holder, entangled)
	switch pair.State {
	case entangler.PairStateDisentangled:
		require.Equal(h.t, []uint64{0, 1, 1, 0}, []uint64{oi, ei, oo, eo})
	case entangler.PairStateEntangled:
		require.Equal(h.t, []uint64{1, 0, 0, 1}, []uint64{oi, ei, oo, eo})
	case entangler.PairStateBurned:
		require.Equal(h.t, []uint64{0, 0, 0, 1}, []uint64{oi, ei, oo, eo})
	default:
		h.t.Fatalf("unknown pair state %d", pair.State)
	}
	m, err := h.query.Ledger().ReadMint(entangled)
	require.Nil(h.t, err)
	require.Equal(h.t, uint64(1), m.Supply)
}
