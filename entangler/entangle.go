package entangler

import (
	"github.com/MixinNetwork/mixin/logger"
)

// Entangle deposits the original held by the signer into escrow and releases
// the entangled token to the signer. One-way collections allow it.
func (ix *Entangle) execute(inv *invocation) error {
	c, err := inv.readCollection(ix.Id)
	if err != nil {
		return err
	}
	pc, err := inv.readPair(c, ix.OriginalMint)
	if err != nil {
		return err
	}
	if pc.pair.State == PairStateBurned {
		return NewError(CodePermanentlyLocked, "entangled pair")
	}

	holder := inv.signer.Key()
	balance, err := inv.ledger.Balance(holder, ix.OriginalMint)
	if err != nil {
		return ledgerError(err, "original account")
	}
	if balance < 1 {
		return NewError(CodeInsufficientFunds, "original account")
	}
	if pc.pair.State != PairStateDisentangled {
		return NewError(CodeInvalidState, "entangled pair")
	}

	custody, err := inv.custody()
	if err != nil {
		return err
	}
	src, err := inv.ledger.CreateAssociatedAccount(holder, ix.OriginalMint)
	if err != nil {
		return ledgerError(err, "original account")
	}
	err = inv.ledger.Transfer(src, pc.originalEscrow, inv.signer, 1)
	if err != nil {
		return ledgerError(err, "original deposit")
	}
	dst, err := inv.ledger.CreateAssociatedAccount(holder, pc.pair.EntangledMint)
	if err != nil {
		return ledgerError(err, "entangled account")
	}
	err = inv.ledger.Transfer(pc.entangledEscrow, dst, custody, 1)
	if err != nil {
		return ledgerError(err, "entangled release")
	}

	pc.pair.State = PairStateEntangled
	logger.Verbosef("Entangle(%s, %s, %s)\n", c.Id, ix.OriginalMint, holder)
	return inv.writePair(pc)
}
