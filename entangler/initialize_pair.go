package entangler

import (
	"github.com/MixinNetwork/mixin/logger"
)

func (ix *InitializePair) execute(inv *invocation) error {
	c, err := inv.readCollection(ix.Id)
	if err != nil {
		return err
	}
	m, err := inv.ledger.ReadMint(ix.OriginalMint)
	if err != nil {
		return ledgerError(err, "original mint")
	}
	if m.Decimals != 0 || m.Supply != 1 {
		return NewError(CodeInvalidArgument, "original mint is not non-fungible")
	}
	original, err := inv.ledger.VerifyMember(ix.OriginalMint, c.OriginalCollectionMint)
	if err != nil {
		return ledgerError(err, "original collection membership")
	}
	collection, err := inv.ledger.ReadMetadata(c.OriginalCollectionMint)
	if err != nil {
		return ledgerError(err, "original collection metadata")
	}

	entangledMint := EntangledMintAddress(c.Id, ix.OriginalMint)
	address := PairAddress(entangledMint)
	err = inv.vacant(address, "entangled pair")
	if err != nil {
		return err
	}
	err = inv.vacant(entangledMint, "entangled mint")
	if err != nil {
		return err
	}

	custody, err := inv.custody()
	if err != nil {
		return err
	}
	_, err = inv.ledger.CreateAssociatedAccount(custody.Key(), ix.OriginalMint)
	if err != nil {
		return ledgerError(err, "original escrow")
	}
	creators := entangledCreators(custody.Key(), collection)
	err = inv.mintEntangled(entangledMint, custody, original, creators, c.Royalties, c.EntangledCollectionMint)
	if err != nil {
		return err
	}

	p := &EntangledPair{
		OriginalMint:  ix.OriginalMint,
		EntangledMint: entangledMint,
		State:         PairStateDisentangled,
	}
	logger.Verbosef("InitializePair(%s, %s, %s)\n", c.Id, p.OriginalMint, p.EntangledMint)
	return inv.write(encodeRecord(address, EntangledPairDiscriminator, p))
}
