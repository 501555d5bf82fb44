package entangler

import (
	"github.com/MixinNetwork/entangler/token"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
)

func (ix *CreateCollection) execute(inv *invocation) error {
	if ix.Id.IsZero() {
		return NewError(CodeInvalidArgument, "collection id")
	}
	if ix.Royalties > MaxRoyalties {
		return NewError(CodeInvalidArgument, "royalties")
	}
	address := CollectionAddress(ix.Id)
	err := inv.vacant(address, "entangled collection")
	if err != nil {
		return err
	}
	mint := CollectionMintAddress(ix.Id)
	err = inv.vacant(mint, "entangled collection mint")
	if err != nil {
		return err
	}

	original, err := inv.ledger.ReadMetadata(ix.OriginalCollectionMint)
	if err != nil {
		return ledgerError(err, "original collection metadata")
	}
	custody, err := inv.custody()
	if err != nil {
		return err
	}
	creators := entangledCreators(custody.Key(), original)
	err = inv.mintEntangled(mint, custody, original, creators, ix.Royalties, solana.PublicKey{})
	if err != nil {
		return err
	}

	c := &EntangledCollection{
		Id:                      ix.Id,
		OriginalCollectionMint:  ix.OriginalCollectionMint,
		EntangledCollectionMint: mint,
		Royalties:               ix.Royalties,
		OneWay:                  ix.OneWay,
	}
	logger.Verbosef("CreateCollection(%s, %s, %s, %d, %t)\n", c.Id, c.OriginalCollectionMint, c.EntangledCollectionMint, c.Royalties, c.OneWay)
	return inv.write(encodeRecord(address, EntangledCollectionDiscriminator, c))
}

// mintEntangled creates mint under custody, mints its only unit into the
// custody escrow and writes metadata with the name, symbol and uri of
// original.
func (inv *invocation) mintEntangled(mint solana.PublicKey, custody token.Authority, original *token.Metadata, creators []token.Creator, royalties uint16, collection solana.PublicKey) error {
	err := inv.ledger.InitializeMint(mint, 0, custody.Key(), custody.Key())
	if err != nil {
		return ledgerError(err, "entangled mint")
	}
	escrow, err := inv.ledger.CreateAssociatedAccount(custody.Key(), mint)
	if err != nil {
		return ledgerError(err, "entangled escrow")
	}
	err = inv.ledger.MintTo(mint, escrow, custody, 1)
	if err != nil {
		return ledgerError(err, "entangled escrow")
	}

	err = inv.ledger.CreateMetadata(&token.CreateMetadataArgs{
		Mint:                 mint,
		UpdateAuthority:      custody.Key(),
		Name:                 original.Name,
		Symbol:               original.Symbol,
		Uri:                  original.Uri,
		SellerFeeBasisPoints: royalties,
		Creators:             creators,
		Collection:           collection,
		IsMutable:            true,
	}, custody)
	if err != nil {
		return ledgerError(err, "entangled metadata")
	}
	if collection.IsZero() {
		return nil
	}
	err = inv.ledger.VerifyCollection(mint, collection, custody)
	return ledgerError(err, "entangled collection metadata")
}

// entangledCreators credits the custody and the first creator of the
// original collection, or its update authority when it lists none.
func entangledCreators(custody solana.PublicKey, collection *token.Metadata) []token.Creator {
	creator := collection.UpdateAuthority
	if len(collection.Creators) > 0 {
		creator = collection.Creators[0].Address
	}
	if creator == custody {
		return []token.Creator{{Address: custody, Verified: true, Share: 100}}
	}
	return []token.Creator{
		{Address: custody, Verified: true, Share: 0},
		{Address: creator, Verified: false, Share: 100},
	}
}
