package token

import (
	"errors"

	"github.com/MixinNetwork/mixin/common"
	"github.com/gagliardetto/solana-go"
)

const (
	MaxCreators           = 5
	MaxBasisPoints uint16 = 10000
)

var (
	ErrMetadataNotFound = errors.New("metadata not found")
	ErrMetadataExists   = errors.New("metadata already exists")
	ErrInvalidCreators  = errors.New("invalid creators")
	ErrInvalidRoyalties = errors.New("seller fee basis points exceed 10000")
	ErrNotCollection    = errors.New("metadata is not part of this collection")
	ErrNotNonFungible   = errors.New("token is not a non-fungible token")
)

type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

type Collection struct {
	Key      solana.PublicKey
	Verified bool
}

type Metadata struct {
	UpdateAuthority      solana.PublicKey
	Mint                 solana.PublicKey
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	Collection           *Collection
	IsMutable            bool
}

type CreateMetadataArgs struct {
	Mint                 solana.PublicKey
	UpdateAuthority      solana.PublicKey
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	Collection           solana.PublicKey
	IsMutable            bool
}

func MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte("metadata"),
		solana.TokenMetadataProgramID.Bytes(),
		mint.Bytes(),
	}
	addr, _, err := solana.FindProgramAddress(seeds, solana.TokenMetadataProgramID)
	return addr, err
}

// CreateMetadata requires the mint authority. A creator may only be marked
// verified when it is the mint authority itself.
func (l *Ledger) CreateMetadata(args *CreateMetadataArgs, mintAuthority Authority) error {
	m, err := l.ReadMint(args.Mint)
	if err != nil {
		return err
	}
	err = l.checkAuthority(mintAuthority, m.MintAuthority)
	if err != nil {
		return err
	}
	if args.SellerFeeBasisPoints > MaxBasisPoints {
		return ErrInvalidRoyalties
	}
	if len(args.Creators) > MaxCreators {
		return ErrInvalidCreators
	}
	var shares int
	for i, c := range args.Creators {
		if c.Verified && c.Address != mintAuthority.Key() {
			return ErrInvalidCreators
		}
		for _, o := range args.Creators[:i] {
			if o.Address == c.Address {
				return ErrInvalidCreators
			}
		}
		shares += int(c.Share)
	}
	if len(args.Creators) > 0 && shares != 100 {
		return ErrInvalidCreators
	}

	addr, err := MetadataAddress(args.Mint)
	if err != nil {
		return err
	}
	old, err := l.accounts.ReadAccount(addr)
	if err != nil {
		return err
	} else if old != nil {
		return ErrMetadataExists
	}

	md := &Metadata{
		UpdateAuthority:      args.UpdateAuthority,
		Mint:                 args.Mint,
		Name:                 args.Name,
		Symbol:               args.Symbol,
		Uri:                  args.Uri,
		SellerFeeBasisPoints: args.SellerFeeBasisPoints,
		Creators:             args.Creators,
		IsMutable:            args.IsMutable,
	}
	if !args.Collection.IsZero() {
		md.Collection = &Collection{Key: args.Collection}
	}
	return l.writeMetadata(addr, md)
}

func (l *Ledger) ReadMetadata(mint solana.PublicKey) (*Metadata, error) {
	addr, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	acc, err := l.accounts.ReadAccount(addr)
	if err != nil {
		return nil, err
	}
	return DecodeMetadata(acc)
}

// VerifyCollection marks mint as a verified member of collectionMint. It must
// be approved by the update authority of the collection's metadata.
func (l *Ledger) VerifyCollection(mint, collectionMint solana.PublicKey, auth Authority) error {
	cmd, err := l.ReadMetadata(collectionMint)
	if err != nil {
		return err
	}
	err = l.checkAuthority(auth, cmd.UpdateAuthority)
	if err != nil {
		return err
	}
	md, err := l.ReadMetadata(mint)
	if err != nil {
		return err
	}
	if md.Collection == nil || md.Collection.Key != collectionMint {
		return ErrNotCollection
	}
	md.Collection.Verified = true
	addr, err := MetadataAddress(mint)
	if err != nil {
		return err
	}
	return l.writeMetadata(addr, md)
}

// VerifyMember fails unless mint is a verified member of collectionMint.
func (l *Ledger) VerifyMember(mint, collectionMint solana.PublicKey) (*Metadata, error) {
	md, err := l.ReadMetadata(mint)
	if err != nil {
		return nil, err
	}
	c := md.Collection
	if c == nil || !c.Verified || c.Key != collectionMint {
		return nil, ErrNotCollection
	}
	return md, nil
}

// BurnNFT destroys the single unit held in account, closes the account and
// removes the metadata of mint.
func (l *Ledger) BurnNFT(mint, account solana.PublicKey, owner Authority) error {
	m, err := l.ReadMint(mint)
	if err != nil {
		return err
	}
	if m.Decimals != 0 || m.Supply != 1 {
		return ErrNotNonFungible
	}
	ta, err := l.mustReadTokenAccount(account)
	if err != nil {
		return err
	}
	if ta.Mint != mint {
		return ErrMintMismatch
	}
	if ta.Amount != 1 {
		return ErrInsufficientFunds
	}
	addr, err := MetadataAddress(mint)
	if err != nil {
		return err
	}
	_, err = l.ReadMetadata(mint)
	if err != nil {
		return err
	}

	err = l.Burn(account, owner, 1)
	if err != nil {
		return err
	}
	err = l.CloseAccount(account, owner)
	if err != nil {
		return err
	}
	return l.accounts.DeleteAccount(addr)
}

type NFTArgs struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Collection           solana.PublicKey
}

// CreateNFT initializes mint with owner as every authority, mints its single
// unit to the owner's associated account and writes the metadata. The
// collection is verified when owner is its update authority.
func (l *Ledger) CreateNFT(mint solana.PublicKey, owner Authority, args *NFTArgs) (solana.PublicKey, error) {
	err := l.InitializeMint(mint, 0, owner.Key(), owner.Key())
	if err != nil {
		return solana.PublicKey{}, err
	}
	ata, err := l.CreateAssociatedAccount(owner.Key(), mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	err = l.MintTo(mint, ata, owner, 1)
	if err != nil {
		return solana.PublicKey{}, err
	}
	err = l.CreateMetadata(&CreateMetadataArgs{
		Mint:                 mint,
		UpdateAuthority:      owner.Key(),
		Name:                 args.Name,
		Symbol:               args.Symbol,
		Uri:                  args.Uri,
		SellerFeeBasisPoints: args.SellerFeeBasisPoints,
		Creators:             []Creator{{Address: owner.Key(), Verified: true, Share: 100}},
		Collection:           args.Collection,
		IsMutable:            true,
	}, owner)
	if err != nil || args.Collection.IsZero() {
		return ata, err
	}
	cmd, err := l.ReadMetadata(args.Collection)
	if err != nil {
		return ata, err
	}
	if cmd.UpdateAuthority != owner.Key() {
		return ata, nil
	}
	return ata, l.VerifyCollection(mint, args.Collection, owner)
}

func DecodeMetadata(acc *Account) (*Metadata, error) {
	if acc == nil {
		return nil, ErrMetadataNotFound
	}
	if acc.Owner != solana.TokenMetadataProgramID {
		return nil, ErrOwnerMismatch
	}
	var md Metadata
	err := common.MsgpackUnmarshal(acc.Data, &md)
	return &md, err
}

func (l *Ledger) writeMetadata(address solana.PublicKey, md *Metadata) error {
	return l.accounts.WriteAccount(&Account{
		Address: address,
		Owner:   solana.TokenMetadataProgramID,
		Data:    common.MsgpackMarshalPanic(md),
	})
}
