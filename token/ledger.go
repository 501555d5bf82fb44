package token

import (
	"bytes"
	"errors"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	accountKindMint  = 1
	accountKindToken = 2
)

var (
	ErrAccountInUse        = errors.New("account already in use")
	ErrAccountNotFound     = errors.New("account not found")
	ErrNotMint             = errors.New("account is not a mint")
	ErrNotTokenAccount     = errors.New("account is not a token account")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrOwnerMismatch       = errors.New("owner does not match")
	ErrMintMismatch        = errors.New("account not associated with this mint")
	ErrMissingAuthority    = errors.New("missing authority")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidInvoker      = errors.New("program signer from another invoker")
	ErrUnregisteredInvoker = errors.New("invoker is not a registered program")
	ErrProgramRegistered   = errors.New("program already registered")
	ErrNonZeroBalance      = errors.New("non-native account can only be closed if its balance is zero")
	ErrSupplyOverflow      = errors.New("operation overflowed")
)

type Mint struct {
	MintAuthority   solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority solana.PublicKey
}

type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// Ledger is the token program bound to one transaction and one invoking
// program. It must not outlive the transaction of its Accounts.
type Ledger struct {
	accounts Accounts
	invoker  solana.PublicKey
	program  *Program
}

// NewLedger builds a ledger that honors key and signature authorities only.
// Program signers need a ledger from Program.NewLedger.
func NewLedger(accounts Accounts, invoker solana.PublicKey) *Ledger {
	return &Ledger{
		accounts: accounts,
		invoker:  invoker,
	}
}

func AssociatedAddress(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	return addr, err
}

func (l *Ledger) InitializeMint(address solana.PublicKey, decimals uint8, mintAuthority, freezeAuthority solana.PublicKey) error {
	old, err := l.accounts.ReadAccount(address)
	if err != nil {
		return err
	} else if old != nil {
		return ErrAccountInUse
	}
	m := &Mint{
		MintAuthority:   mintAuthority,
		Decimals:        decimals,
		IsInitialized:   true,
		FreezeAuthority: freezeAuthority,
	}
	return l.writeMint(address, m)
}

func (l *Ledger) ReadMint(address solana.PublicKey) (*Mint, error) {
	acc, err := l.accounts.ReadAccount(address)
	if err != nil {
		return nil, err
	}
	return DecodeMint(acc)
}

// CreateAssociatedAccount creates the associated token account of wallet for
// mint, or returns it unchanged when it already exists.
func (l *Ledger) CreateAssociatedAccount(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, err := AssociatedAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	_, err = l.ReadMint(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	old, err := l.accounts.ReadAccount(addr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if old != nil {
		ta, err := DecodeTokenAccount(old)
		if err != nil {
			return solana.PublicKey{}, ErrAccountInUse
		}
		if ta.Mint != mint || ta.Owner != wallet {
			return solana.PublicKey{}, ErrAccountInUse
		}
		return addr, nil
	}
	ta := &TokenAccount{Mint: mint, Owner: wallet}
	return addr, l.writeTokenAccount(addr, ta)
}

// ReadTokenAccount returns nil, nil for a vacant address.
func (l *Ledger) ReadTokenAccount(address solana.PublicKey) (*TokenAccount, error) {
	acc, err := l.accounts.ReadAccount(address)
	if err != nil || acc == nil {
		return nil, err
	}
	return DecodeTokenAccount(acc)
}

// Balance of the associated token account of wallet, zero when absent.
func (l *Ledger) Balance(wallet, mint solana.PublicKey) (uint64, error) {
	addr, err := AssociatedAddress(wallet, mint)
	if err != nil {
		return 0, err
	}
	ta, err := l.ReadTokenAccount(addr)
	if err != nil || ta == nil {
		return 0, err
	}
	if ta.Mint != mint {
		return 0, ErrMintMismatch
	}
	return ta.Amount, nil
}

func (l *Ledger) MintTo(mint, destination solana.PublicKey, auth Authority, amount uint64) error {
	m, err := l.ReadMint(mint)
	if err != nil {
		return err
	}
	err = l.checkAuthority(auth, m.MintAuthority)
	if err != nil {
		return err
	}
	dst, err := l.mustReadTokenAccount(destination)
	if err != nil {
		return err
	}
	if dst.Mint != mint {
		return ErrMintMismatch
	}
	if m.Supply > math.MaxUint64-amount || dst.Amount > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	m.Supply += amount
	dst.Amount += amount
	err = l.writeMint(mint, m)
	if err != nil {
		return err
	}
	return l.writeTokenAccount(destination, dst)
}

func (l *Ledger) Transfer(source, destination solana.PublicKey, auth Authority, amount uint64) error {
	src, err := l.mustReadTokenAccount(source)
	if err != nil {
		return err
	}
	err = l.checkAuthority(auth, src.Owner)
	if err != nil {
		return err
	}
	dst, err := l.mustReadTokenAccount(destination)
	if err != nil {
		return err
	}
	if src.Mint != dst.Mint {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	if source == destination {
		return nil
	}
	if dst.Amount > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	err = l.writeTokenAccount(source, src)
	if err != nil {
		return err
	}
	return l.writeTokenAccount(destination, dst)
}

func (l *Ledger) Burn(account solana.PublicKey, auth Authority, amount uint64) error {
	ta, err := l.mustReadTokenAccount(account)
	if err != nil {
		return err
	}
	err = l.checkAuthority(auth, ta.Owner)
	if err != nil {
		return err
	}
	if ta.Amount < amount {
		return ErrInsufficientFunds
	}
	m, err := l.ReadMint(ta.Mint)
	if err != nil {
		return err
	}
	if m.Supply < amount {
		panic(ta.Mint)
	}
	ta.Amount -= amount
	m.Supply -= amount
	err = l.writeMint(ta.Mint, m)
	if err != nil {
		return err
	}
	return l.writeTokenAccount(account, ta)
}

func (l *Ledger) CloseAccount(account solana.PublicKey, auth Authority) error {
	ta, err := l.mustReadTokenAccount(account)
	if err != nil {
		return err
	}
	err = l.checkAuthority(auth, ta.Owner)
	if err != nil {
		return err
	}
	if ta.Amount != 0 {
		return ErrNonZeroBalance
	}
	return l.accounts.DeleteAccount(account)
}

func (l *Ledger) mustReadTokenAccount(address solana.PublicKey) (*TokenAccount, error) {
	ta, err := l.ReadTokenAccount(address)
	if err != nil {
		return nil, err
	} else if ta == nil {
		return nil, ErrAccountNotFound
	}
	return ta, nil
}

func (l *Ledger) writeMint(address solana.PublicKey, m *Mint) error {
	return l.accounts.WriteAccount(&Account{
		Address: address,
		Owner:   solana.TokenProgramID,
		Data:    encodeAccount(accountKindMint, m),
	})
}

func (l *Ledger) writeTokenAccount(address solana.PublicKey, ta *TokenAccount) error {
	return l.accounts.WriteAccount(&Account{
		Address: address,
		Owner:   solana.TokenProgramID,
		Data:    encodeAccount(accountKindToken, ta),
	})
}

func DecodeMint(acc *Account) (*Mint, error) {
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	var m Mint
	err := decodeAccount(acc, accountKindMint, &m)
	if err != nil {
		return nil, ErrNotMint
	}
	return &m, nil
}

func DecodeTokenAccount(acc *Account) (*TokenAccount, error) {
	if acc == nil {
		return nil, ErrAccountNotFound
	}
	var ta TokenAccount
	err := decodeAccount(acc, accountKindToken, &ta)
	if err != nil {
		return nil, ErrNotTokenAccount
	}
	return &ta, nil
}

func encodeAccount(kind byte, v interface{}) []byte {
	buf := bytes.NewBuffer([]byte{kind})
	err := bin.NewBorshEncoder(buf).Encode(v)
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func decodeAccount(acc *Account, kind byte, v interface{}) error {
	if acc.Owner != solana.TokenProgramID {
		return ErrOwnerMismatch
	}
	if len(acc.Data) < 1 || acc.Data[0] != kind {
		return ErrNotTokenAccount
	}
	return bin.NewBorshDecoder(acc.Data[1:]).Decode(v)
}
