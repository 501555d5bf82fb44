package entangler

import (
	"github.com/MixinNetwork/mixin/logger"
)

// BurnOriginal destroys the escrowed original of an entangled pair held by
// the signer. The pair stays locked for good afterwards.
func (ix *BurnOriginal) execute(inv *invocation) error {
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
	if balance != 1 {
		return NewError(CodeInsufficientFunds, "entangled account")
	}
	if pc.pair.State != PairStateEntangled {
		return NewError(CodeInvalidState, "entangled pair")
	}

	custody, err := inv.custody()
	if err != nil {
		return err
	}
	err = inv.ledger.BurnNFT(ix.OriginalMint, pc.originalEscrow, custody)
	if err != nil {
		return ledgerError(err, "original burn")
	}

	pc.pair.State = PairStateBurned
	logger.Printf("BurnOriginal(%s, %s, %s)\n", c.Id, ix.OriginalMint, holder)
	return inv.writePair(pc)
}
