package entangler_test

import (
	"testing"
	"time"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/entangler/token"
	"github.com/gagliardetto/solana-go"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestExecuteReplay(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	h.setState(100)
	id := h.createCollection(0, false)

	traceId := uuid.Must(uuid.NewV4()).String()
	ix := &entangler.CreateCollectionEntry{Key: "replay", Id: id, FeeMint: h.feeMint, Earner: h.earner}
	req, err := entangler.NewRequest(traceId, ix, h.holder)
	require.Nil(err)

	j1, err := h.program.Execute(h.ctx, req)
	require.Nil(err)
	require.Equal("createCollectionEntry", j1.Instruction)
	require.Equal(h.holder.PublicKey(), j1.Signer)
	j2, err := h.program.Execute(h.ctx, req)
	require.Nil(err)
	require.Equal(j1.Digest, j2.Digest)
	require.True(j1.CreatedAt.Equal(j2.CreatedAt))
	require.Equal(uint64(900), h.balance(h.holder.PublicKey(), h.feeMint))

	other, err := entangler.NewRequest(traceId, &entangler.CreateCollectionEntry{
		Key: "replay_2", Id: id, FeeMint: h.feeMint, Earner: h.earner,
	}, h.holder)
	require.Nil(err)
	_, err = h.program.Execute(h.ctx, other)
	require.ErrorIs(err, entangler.ErrInvalidArgument)
	require.Equal(uint64(900), h.balance(h.holder.PublicKey(), h.feeMint))

	journals, err := h.query.ListJournals(time.Time{}, 0)
	require.Nil(err)
	require.Len(journals, 3)
	require.Equal(traceId, journals[2].TraceId)
	for i := 1; i < len(journals); i++ {
		require.True(journals[i].CreatedAt.After(journals[i-1].CreatedAt))
	}
	j, err := h.query.ReadJournal(traceId)
	require.Nil(err)
	require.Equal(j1.Digest, j.Digest)
}

func TestExecuteRejectsForgery(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	ix := &entangler.SetEntanglerState{
		Admin:   h.deployer.PublicKey(),
		Earner:  h.earner,
		FeeMint: h.feeMint,
	}

	req, err := entangler.NewRequest(uuid.Must(uuid.NewV4()).String(), ix, h.holder)
	require.Nil(err)
	req.Signer = h.deployer.PublicKey()
	_, err = h.program.Execute(h.ctx, req)
	require.ErrorIs(err, entangler.ErrUnauthorized)

	req, err = entangler.NewRequest("not-a-uuid", ix, h.deployer)
	require.Nil(err)
	_, err = h.program.Execute(h.ctx, req)
	require.ErrorIs(err, entangler.ErrInvalidArgument)

	req, err = entangler.NewRequest(uuid.Must(uuid.NewV4()).String(), ix, h.deployer)
	require.Nil(err)
	req.Instruction = append(req.Instruction, 0)
	_, err = h.program.Execute(h.ctx, req)
	require.ErrorIs(err, entangler.ErrInvalidArgument)

	// failed requests leave no journal and no record
	journals, err := h.query.ListJournals(time.Time{}, 0)
	require.Nil(err)
	require.Len(journals, 0)
	s, err := h.query.ReadEntanglerState()
	require.Nil(err)
	require.Nil(s)
}

func TestCustodyCannotBeForged(t *testing.T) {
	require := require.New(t)
	h := newHarness(t)
	h.setState(0)
	id := h.createCollection(0, false)
	m := h.mintOriginal(h.holder.PublicKey())
	require.Nil(h.execute(h.holder, &entangler.InitializePair{Id: id, OriginalMint: m}))

	_, err := token.RegisterProgram(entangler.ProgramID)
	require.ErrorIs(err, token.ErrProgramRegistered)

	custody := entangler.CustodyAddress()
	entangled := entangler.EntangledMintAddress(id, m)
	err = h.store.RunTransaction(h.ctx, func(txn entangler.Txn) error {
		l := token.NewLedger(txn, entangler.ProgramID)
		_, bump, err := solana.FindProgramAddress([][]byte{[]byte(entangler.SeedAuthority)}, entangler.ProgramID)
		require.Nil(err)
		_, err = l.InvokeSigned([]byte(entangler.SeedAuthority), []byte{bump})
		return err
	})
	require.ErrorIs(err, token.ErrUnregisteredInvoker)
	require.Equal(uint64(1), h.balance(custody, entangled))
	h.requireConserved(id, m, h.holder.PublicKey())
}
