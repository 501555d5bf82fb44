package entangler

import (
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("ABseVbbB9Dd2NaonudphxWJWc3Hq12C7PjGQ89HRkPaB")

const (
	SeedState            = "state"
	SeedCollection       = "collection"
	SeedCollectionMint   = "collection-mint"
	SeedCollectionEntry  = "collection-entry"
	SeedEntanglementPair = "entanglement-pair"
	SeedEntanglementMint = "entanglement-mint"
	SeedAuthority        = "authority"
)

var custodyAddress, custodyBump = derive([]byte(SeedAuthority))

// derive panics when seeds exceed the derivation limits, so variable length
// seeds must be validated by the caller first.
func derive(seeds ...[]byte) (solana.PublicKey, uint8) {
	addr, bump, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		panic(err)
	}
	return addr, bump
}

func StateAddress() solana.PublicKey {
	addr, _ := derive([]byte(SeedState))
	return addr
}

func CollectionAddress(id solana.PublicKey) solana.PublicKey {
	addr, _ := derive([]byte(SeedCollection), id.Bytes())
	return addr
}

func CollectionMintAddress(id solana.PublicKey) solana.PublicKey {
	addr, _ := derive([]byte(SeedCollectionMint), id.Bytes())
	return addr
}

func EntryAddress(key string) (solana.PublicKey, error) {
	err := ValidateEntryKey(key)
	if err != nil {
		return solana.PublicKey{}, err
	}
	addr, _ := derive([]byte(SeedCollectionEntry), []byte(key))
	return addr, nil
}

func EntangledMintAddress(id, originalMint solana.PublicKey) solana.PublicKey {
	addr, _ := derive([]byte(SeedEntanglementMint), id.Bytes(), originalMint.Bytes())
	return addr
}

func PairAddress(entangledMint solana.PublicKey) solana.PublicKey {
	addr, _ := derive([]byte(SeedEntanglementPair), entangledMint.Bytes())
	return addr
}

func CustodyAddress() solana.PublicKey {
	return custodyAddress
}
