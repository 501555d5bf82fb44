package entangler

import (
	"github.com/MixinNetwork/mixin/logger"
)

func (ix *Disentangle) execute(inv *invocation) error {
	c, err := inv.readCollection(ix.Id)
	if err != nil {
		return err
	}
	if c.OneWay {
		return NewError(CodeOneWayViolation, "entangled collection")
	}
	pc, err := inv.readPair(c, ix.OriginalMint)
	if err != nil {
		return err
	}
	if pc.pair.State == PairStateBurned {
		return NewError(CodePermanentlyLocked, "entangled pair")
	}

	holder := inv.signer.Key()
	balance, err := inv.ledger.Balance(holder, pc.pair.EntangledMint)
	if err != nil {
		return ledgerError(err, "entangled account")
	}
	if balance < 1 {
		return NewError(CodeInsufficientFunds, "entangled account")
	}
	if pc.pair.State != PairStateEntangled {
		return NewError(CodeInvalidState, "entangled pair")
	}

	custody, err := inv.custody()
	if err != nil {
		return err
	}
	src, err := inv.ledger.CreateAssociatedAccount(holder, pc.pair.EntangledMint)
	if err != nil {
		return ledgerError(err, "entangled account")
	}
	err = inv.ledger.Transfer(src, pc.entangledEscrow, inv.signer, 1)
	if err != nil {
		return ledgerError(err, "entangled deposit")
	}
	dst, err := inv.ledger.CreateAssociatedAccount(holder, ix.OriginalMint)
	if err != nil {
		return ledgerError(err, "original account")
	}
	err = inv.ledger.Transfer(pc.originalEscrow, dst, custody, 1)
	if err != nil {
		return ledgerError(err, "original release")
	}

	pc.pair.State = PairStateDisentangled
	logger.Verbosef("Disentangle(%s, %s, %s)\n", c.Id, ix.OriginalMint, holder)
	return inv.writePair(pc)
}
