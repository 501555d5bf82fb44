package entangler_test

import (
	"testing"
	"time"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)

	st, err := h.query.ReadEntanglerState()
	require.Nil(err)
	require.Nil(st)
	collections, err := h.query.ListCollections(0)
	require.Nil(err)
	require.Len(collections, 0)

	h.setState(0)
	st, err = h.query.ReadEntanglerState()
	require.Nil(err)
	require.Equal(h.feeMint, st.FeeMint)

	missing := newKey(t).PublicKey()
	c, err := h.query.ReadCollection(missing)
	require.Nil(err)
	require.Nil(c)

	a := h.createCollection(100, false)
	b := h.createCollection(200, true)
	for i := 0; i < 2; i++ {
		c, err = h.query.ReadCollection(a)
		require.Nil(err)
		require.Equal(uint16(100), c.Royalties)
	}
	c, err = h.query.ReadCollectionAt(entangler.CollectionAddress(b))
	require.Nil(err)
	require.True(c.OneWay)

	collections, err = h.query.ListCollections(0)
	require.Nil(err)
	require.Len(collections, 2)
	collections, err = h.query.ListCollections(1)
	require.Nil(err)
	require.Len(collections, 1)

	e, err := h.query.ReadEntry("nothing_here")
	require.Nil(err)
	require.Nil(e)
	_, err = h.query.ReadEntry("not-valid")
	require.ErrorIs(err, entangler.ErrInvalidArgument)

	p, err := h.query.ReadPair(a, missing)
	require.Nil(err)
	require.Nil(p)

	journals, err := h.query.ListJournals(time.Time{}, 0)
	require.Nil(err)
	require.Len(journals, 3)
	require.Equal("setEntanglerState", journals[0].Instruction)
	j, err := h.query.ReadJournal(journals[1].TraceId)
	require.Nil(err)
	require.Equal("createCollection", j.Instruction)
	require.Equal(h.holder.PublicKey(), j.Signer)

	// the query ledger never writes
	l := h.query.Ledger()
	require.NotNil(l.InitializeMint(newKey(t).PublicKey(), 0, missing, missing))
}
