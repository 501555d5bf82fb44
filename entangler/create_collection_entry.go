package entangler

import (
	"github.com/MixinNetwork/mixin/logger"
)

// The fee mint and earner must equal the global state, and exactly the
// global price is paid, including a zero price.
func (ix *CreateCollectionEntry) execute(inv *invocation) error {
	address, err := EntryAddress(ix.Key)
	if err != nil {
		return err
	}
	s, err := inv.readState()
	if err != nil {
		return err
	}
	if ix.FeeMint != s.FeeMint {
		return NewError(CodeFeeMismatch, "fee mint")
	}
	if ix.Earner != s.Earner {
		return NewError(CodeFeeMismatch, "earner")
	}
	_, err = inv.readCollection(ix.Id)
	if err != nil {
		return err
	}
	err = inv.vacant(address, "collection entry")
	if err != nil {
		return err
	}

	payer := inv.signer.Key()
	balance, err := inv.ledger.Balance(payer, s.FeeMint)
	if err != nil {
		return ledgerError(err, "fee account")
	}
	if balance < s.Price {
		return NewError(CodeInsufficientFunds, "fee account")
	}
	src, err := inv.ledger.CreateAssociatedAccount(payer, s.FeeMint)
	if err != nil {
		return ledgerError(err, "fee account")
	}
	dst, err := inv.ledger.CreateAssociatedAccount(s.Earner, s.FeeMint)
	if err != nil {
		return ledgerError(err, "earner account")
	}
	err = inv.ledger.Transfer(src, dst, inv.signer, s.Price)
	if err != nil {
		return ledgerError(err, "fee transfer")
	}

	e := &CollectionEntry{
		Id:  ix.Id,
		Key: ix.Key,
	}
	logger.Verbosef("CreateCollectionEntry(%s, %s, %d)\n", e.Key, e.Id, s.Price)
	return inv.write(encodeRecord(address, CollectionEntryDiscriminator, e))
}
