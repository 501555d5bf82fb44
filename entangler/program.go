package entangler

import (
	"context"
	"errors"
	"time"

	"github.com/MixinNetwork/entangler/token"
	"github.com/MixinNetwork/mixin/crypto"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/gofrs/uuid"
)

// Program executes signed requests against the store. Each request runs in
// one store transaction, so it either commits every effect and its journal
// or nothing at all.
type Program struct {
	store    Store
	clock    *Clock
	deployer solana.PublicKey
}

// NewProgram builds the dispatcher. A non-zero deployer is the only signer
// allowed to create the global state.
func NewProgram(store Store, deployer solana.PublicKey) (*Program, error) {
	clock, err := NewClock(store)
	if err != nil {
		return nil, err
	}
	return &Program{
		store:    store,
		clock:    clock,
		deployer: deployer,
	}, nil
}

// Execute applies req. Re-executing an applied request is a no-op that
// returns its journal; reusing its trace id for another payload fails.
func (p *Program) Execute(ctx context.Context, req *Request) (*Journal, error) {
	start := time.Now()
	name, j, err := p.execute(ctx, req)
	observeRequest(name, err, time.Since(start))
	if err != nil {
		logger.Printf("Program.Execute(%s, %s, %s) => %v\n", req.TraceId, req.Signer, name, err)
		return nil, err
	}
	logger.Verbosef("Program.Execute(%s, %s, %s) => %s\n", req.TraceId, req.Signer, name, j.CreatedAt)
	return j, nil
}

// execute also returns the instruction name, "unknown" until the
// instruction decodes.
func (p *Program) execute(ctx context.Context, req *Request) (string, *Journal, error) {
	name := "unknown"
	id, err := uuid.FromString(req.TraceId)
	if err != nil || id.String() != req.TraceId {
		return name, nil, NewError(CodeInvalidArgument, "trace id")
	}
	ix, err := DecodeInstruction(req.Instruction)
	if err != nil {
		return name, nil, err
	}
	name = ix.Name()
	payload := req.Payload()
	signer, err := token.VerifySignature(req.Signer, payload, req.Signature)
	if err != nil {
		return name, nil, &Error{Code: CodeUnauthorized, Precondition: "signature", Err: err}
	}

	j := &Journal{
		TraceId:     req.TraceId,
		Signer:      req.Signer,
		Instruction: name,
		Digest:      crypto.NewHash(payload),
		Data:        req.Instruction,
		CreatedAt:   p.clock.Now(),
	}
	err = p.store.RunTransaction(ctx, func(txn Txn) error {
		old, err := txn.ReadJournal(j.TraceId)
		if err != nil {
			return err
		}
		if old != nil {
			if old.Digest != j.Digest {
				return NewError(CodeInvalidArgument, "trace id reused")
			}
			j = old
			return nil
		}
		inv := &invocation{
			txn:      txn,
			ledger:   invoker.NewLedger(txn),
			signer:   signer,
			deployer: p.deployer,
		}
		err = ix.execute(inv)
		if err != nil {
			return err
		}
		return txn.WriteJournal(j)
	})
	if err != nil {
		return name, nil, err
	}
	return name, j, nil
}

// invocation is the context of one instruction: the open transaction, a
// ledger bound to this program and the verified signer.
type invocation struct {
	txn      Txn
	ledger   *token.Ledger
	signer   token.Authority
	deployer solana.PublicKey
}

func (inv *invocation) vacant(address solana.PublicKey, precondition string) error {
	acc, err := inv.txn.ReadAccount(address)
	if err != nil {
		return err
	}
	if acc != nil {
		return NewError(CodeAlreadyInitialized, precondition)
	}
	return nil
}

func (inv *invocation) write(acc *token.Account) error {
	return inv.txn.WriteAccount(acc)
}

func (inv *invocation) readState() (*EntanglerState, error) {
	acc, err := inv.txn.ReadAccount(StateAddress())
	if err != nil {
		return nil, err
	}
	s, err := DecodeEntanglerState(acc)
	return s, withPrecondition(err, "entangler state")
}

func (inv *invocation) readCollection(id solana.PublicKey) (*EntangledCollection, error) {
	acc, err := inv.txn.ReadAccount(CollectionAddress(id))
	if err != nil {
		return nil, err
	}
	c, err := DecodeEntangledCollection(acc)
	if err != nil {
		return nil, withPrecondition(err, "entangled collection")
	}
	if c.Id != id {
		return nil, NewError(CodeInvalidState, "entangled collection id")
	}
	return c, nil
}

// readPair loads the pair of originalMint in collection c and checks that
// its escrow balances agree with its state.
func (inv *invocation) readPair(c *EntangledCollection, originalMint solana.PublicKey) (*pairContext, error) {
	entangledMint := EntangledMintAddress(c.Id, originalMint)
	address := PairAddress(entangledMint)
	acc, err := inv.txn.ReadAccount(address)
	if err != nil {
		return nil, err
	}
	pair, err := DecodeEntangledPair(acc)
	if err != nil {
		return nil, withPrecondition(err, "entangled pair")
	}
	if pair.OriginalMint != originalMint || pair.EntangledMint != entangledMint {
		return nil, NewError(CodeInvalidState, "entangled pair mints")
	}

	pc := &pairContext{address: address, pair: pair}
	pc.originalEscrow, err = token.AssociatedAddress(CustodyAddress(), originalMint)
	if err != nil {
		return nil, err
	}
	pc.entangledEscrow, err = token.AssociatedAddress(CustodyAddress(), entangledMint)
	if err != nil {
		return nil, err
	}
	if pair.State == PairStateBurned {
		return pc, nil
	}
	ob, err := inv.ledger.Balance(CustodyAddress(), originalMint)
	if err != nil {
		return nil, ledgerError(err, "original escrow")
	}
	eb, err := inv.ledger.Balance(CustodyAddress(), entangledMint)
	if err != nil {
		return nil, ledgerError(err, "entangled escrow")
	}
	switch pair.State {
	case PairStateDisentangled:
		if ob != 0 || eb != 1 {
			return nil, NewError(CodeInvalidState, "disentangled escrow balances")
		}
	case PairStateEntangled:
		if ob != 1 || eb != 0 {
			return nil, NewError(CodeInvalidState, "entangled escrow balances")
		}
	}
	return pc, nil
}

func (inv *invocation) writePair(pc *pairContext) error {
	return inv.write(encodeRecord(pc.address, EntangledPairDiscriminator, pc.pair))
}

type pairContext struct {
	address         solana.PublicKey
	pair            *EntangledPair
	originalEscrow  solana.PublicKey
	entangledEscrow solana.PublicKey
}

func withPrecondition(err error, precondition string) error {
	var e *Error
	if errors.As(err, &e) && e.Precondition == "account" {
		return &Error{Code: e.Code, Precondition: precondition, Err: e.Err}
	}
	return err
}
