package entangler

import (
	"github.com/MixinNetwork/mixin/logger"
)

// The first call creates the global state and, when a deployer is
// configured, must be signed by it. Later calls must be signed by the
// current admin and replace every field.
func (ix *SetEntanglerState) execute(inv *invocation) error {
	_, err := inv.ledger.ReadMint(ix.FeeMint)
	if err != nil {
		return ledgerError(err, "fee mint")
	}
	if ix.Admin.IsZero() {
		return NewError(CodeInvalidArgument, "admin")
	}

	address := StateAddress()
	acc, err := inv.txn.ReadAccount(address)
	if err != nil {
		return err
	}
	if acc == nil {
		if !inv.deployer.IsZero() && inv.signer.Key() != inv.deployer {
			return NewError(CodeUnauthorized, "deployer")
		}
	} else {
		old, err := DecodeEntanglerState(acc)
		if err != nil {
			return withPrecondition(err, "entangler state")
		}
		if inv.signer.Key() != old.Admin {
			return NewError(CodeUnauthorized, "admin")
		}
	}

	s := &EntanglerState{
		Admin:   ix.Admin,
		Earner:  ix.Earner,
		FeeMint: ix.FeeMint,
		Price:   ix.Price,
	}
	logger.Verbosef("SetEntanglerState(%s, %s, %s, %d)\n", s.Admin, s.Earner, s.FeeMint, s.Price)
	return inv.write(encodeRecord(address, EntanglerStateDiscriminator, s))
}
