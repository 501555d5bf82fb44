package entangler_test

import (
	"testing"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/entangler/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntangleScenario(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	holder := h.holder.PublicKey()

	h.setState(0)
	id := h.createCollection(500, false)
	m := h.mintOriginal(holder)
	require.Nil(h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m}))
	entangled := entangler.EntangledMintAddress(id, m)

	c, err := h.query.ReadCollection(id)
	require.Nil(err)
	require.Equal(uint16(500), c.Royalties)
	require.False(c.OneWay)
	require.Equal(entangler.CollectionMintAddress(id), c.EntangledCollectionMint)
	require.Equal(uint64(1), h.balance(entangler.CustodyAddress(), c.EntangledCollectionMint))

	md, err := h.query.Ledger().ReadMetadata(entangled)
	require.Nil(err)
	require.Equal("Dippie #1", md.Name)
	require.Equal(uint16(500), md.SellerFeeBasisPoints)
	require.Equal(entangler.CustodyAddress(), md.UpdateAuthority)
	require.Len(md.Creators, 2)
	require.Equal(entangler.CustodyAddress(), md.Creators[0].Address)
	require.True(md.Creators[0].Verified)
	require.Equal(h.creator.PublicKey(), md.Creators[1].Address)
	require.Equal(uint8(100), md.Creators[1].Share)
	require.NotNil(md.Collection)
	require.True(md.Collection.Verified)
	require.Equal(c.EntangledCollectionMint, md.Collection.Key)

	require.Equal(uint64(1), h.balance(holder, m))
	require.Equal(uint64(0), h.balance(holder, entangled))
	h.requireConserved(id, m, holder)

	require.Nil(h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m}))
	require.Equal(uint64(0), h.balance(holder, m))
	require.Equal(uint64(1), h.balance(holder, entangled))
	h.requireConserved(id, m, holder)

	require.Nil(h.execute(h.holder, &entangler.Disentangle{Id: id, OriginalMint: m}))
	require.Equal(uint64(1), h.balance(holder, m))
	require.Equal(uint64(0), h.balance(holder, entangled))
	h.requireConserved(id, m, holder)
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	holder := h.holder.PublicKey()

	h.setState(0)
	id := h.createCollection(0, false)
	m := h.mintOriginal(holder)
	require.Nil(h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m}))

	for i := 0; i < 5; i++ {
		require.Nil(h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m}))
		h.requireConserved(id, m, holder)
		err := h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m})
		require.ErrorIs(err, entangler.ErrInsufficientFunds)

		require.Nil(h.execute(h.holder, &entangler.Disentangle{Id: id, OriginalMint: m}))
		h.requireConserved(id, m, holder)
		err = h.execute(h.holder, &entangler.Disentangle{Id: id, OriginalMint: m})
		require.ErrorIs(err, entangler.ErrInsufficientFunds)
	}
	require.Equal(uint64(1), h.balance(holder, m))
	require.Equal(uint64(0), h.balance(holder, entangler.EntangledMintAddress(id, m)))
}

func TestSwapRequiresHolder(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	stranger := newKey(t)

	h.setState(0)
	id := h.createCollection(0, false)
	m := h.mintOriginal(h.holder.PublicKey())

	err := h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrNotInitialized)
	require.Nil(h.execute(stranger, &entangler.InitializePair{Id: id, OriginalMint: m}))

	err = h.execute(stranger, &entangler.Entangle{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrInsufficientFunds)
	require.Nil(h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m}))
	err = h.execute(stranger, &entangler.Disentangle{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrInsufficientFunds)
	err = h.execute(stranger, &entangler.BurnOriginal{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrInsufficientFunds)
	h.requireConserved(id, m, h.holder.PublicKey())

	// the entangled token moves freely and its new holder may disentangle
	entangled := entangler.EntangledMintAddress(id, m)
	h.setup(func(l *token.Ledger) {
		src, err := token.AssociatedAddress(h.holder.PublicKey(), entangled)
		require.Nil(err)
		dst, err := l.CreateAssociatedAccount(stranger.PublicKey(), entangled)
		require.Nil(err)
		require.Nil(l.Transfer(src, dst, authority(t, h.holder), 1))
	})
	require.Nil(h.execute(stranger, &entangler.Disentangle{Id: id, OriginalMint: m}))
	require.Equal(uint64(1), h.balance(stranger.PublicKey(), m))
	h.requireConserved(id, m, stranger.PublicKey())
}

func TestOneWayCollection(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	holder := h.holder.PublicKey()

	h.setState(0)
	id := h.createCollection(1000, true)
	m := h.mintOriginal(holder)
	require.Nil(h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m}))

	require.Nil(h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m}))
	err := h.execute(h.holder, &entangler.Disentangle{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrOneWayViolation)
	err = h.execute(h.holder, &entangler.BurnOriginal{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrOneWayViolation)

	pair, err := h.query.ReadPair(id, m)
	require.Nil(err)
	require.Equal(entangler.PairStateEntangled, pair.State)
	h.requireConserved(id, m, holder)
}

func TestBurnOriginal(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	holder := h.holder.PublicKey()

	h.setState(0)
	id := h.createCollection(0, false)
	m := h.mintOriginal(holder)
	require.Nil(h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m}))

	err := h.execute(h.holder, &entangler.BurnOriginal{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrInsufficientFunds)

	require.Nil(h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m}))
	before, err := h.query.Ledger().ReadMint(m)
	require.Nil(err)
	require.Nil(h.execute(h.holder, &entangler.BurnOriginal{Id: id, OriginalMint: m}))
	after, err := h.query.Ledger().ReadMint(m)
	require.Nil(err)
	require.Equal(before.Supply-1, after.Supply)
	_, err = h.query.Ledger().ReadMetadata(m)
	require.ErrorIs(err, token.ErrMetadataNotFound)

	pair, err := h.query.ReadPair(id, m)
	require.Nil(err)
	require.Equal(entangler.PairStateBurned, pair.State)
	h.requireConserved(id, m, holder)

	err = h.execute(h.holder, &entangler.Disentangle{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrPermanentlyLocked)
	err = h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrPermanentlyLocked)
	err = h.execute(h.holder, &entangler.BurnOriginal{Id: id, OriginalMint: m})
	require.ErrorIs(err, entangler.ErrPermanentlyLocked)
	err = h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m})
	require.NotNil(err)
	h.requireConserved(id, m, holder)
}

func TestSwapPairsIndependent(t *testing.T) {
	h := newHarness(t)
	holder := h.holder.PublicKey()

	h.setState(0)
	id := h.createCollection(0, false)
	m1 := h.mintOriginal(holder)
	m2 := h.mintOriginal(holder)
	assert.Nil(t, h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m1}))
	assert.Nil(t, h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m2}))
	assert.NotEqual(t, entangler.EntangledMintAddress(id, m1), entangler.EntangledMintAddress(id, m2))

	assert.Nil(t, h.execute(h.holder, &entangler.Entangle{Id: id, OriginalMint: m1}))
	h.requireConserved(id, m1, holder)
	h.requireConserved(id, m2, holder)

	p2, err := h.query.ReadPair(id, m2)
	assert.Nil(t, err)
	assert.Equal(t, entangler.PairStateDisentangled, p2.State)
}
