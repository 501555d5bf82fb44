package token

import "github.com/gagliardetto/solana-go"

type Account struct {
	Address solana.PublicKey
	Owner   solana.PublicKey
	Data    []byte
}

// Accounts is the transactional account view a ledger operates on. ReadAccount
// returns nil, nil for a vacant address.
type Accounts interface {
	ReadAccount(address solana.PublicKey) (*Account, error)
	WriteAccount(acc *Account) error
	DeleteAccount(address solana.PublicKey) error
}
