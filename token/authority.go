package token

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Authority is a sealed proof that Key approved a ledger movement. Only this
// package can produce one: from a verified signature, from a local private
// key, or as a program derived signer of the ledger's invoking program.
type Authority interface {
	Key() solana.PublicKey
	authorize(l *Ledger) error
}

type signerAuthority struct {
	key solana.PublicKey
}

func (a *signerAuthority) Key() solana.PublicKey {
	return a.key
}

func (a *signerAuthority) authorize(l *Ledger) error {
	return nil
}

type programAuthority struct {
	key     solana.PublicKey
	program *Program
}

func (a *programAuthority) Key() solana.PublicKey {
	return a.key
}

func (a *programAuthority) authorize(l *Ledger) error {
	if l.program == nil || a.program != l.program {
		return ErrInvalidInvoker
	}
	return nil
}

func VerifySignature(key solana.PublicKey, message []byte, sig solana.Signature) (Authority, error) {
	if key.IsZero() || !sig.Verify(key, message) {
		return nil, ErrInvalidSignature
	}
	return &signerAuthority{key: key}, nil
}

// KeyAuthority proves possession of priv by signing and verifying its own
// public key.
func KeyAuthority(priv solana.PrivateKey) (Authority, error) {
	pub := priv.PublicKey()
	sig, err := priv.Sign(pub.Bytes())
	if err != nil {
		return nil, err
	}
	return VerifySignature(pub, pub.Bytes(), sig)
}

// InvokeSigned returns the signer for the program address derived from seeds
// (bump included) under the ledger's program. Only ledgers built from a
// registered Program can sign, and the signer is rejected by every other
// ledger.
func (l *Ledger) InvokeSigned(seeds ...[]byte) (Authority, error) {
	if l.program == nil {
		return nil, ErrUnregisteredInvoker
	}
	key, err := solana.CreateProgramAddress(seeds, l.program.id)
	if err != nil {
		return nil, err
	}
	return &programAuthority{key: key, program: l.program}, nil
}

// Program is the exclusive right to sign for addresses derived under its id.
// Each id can be registered once per process.
type Program struct {
	id solana.PublicKey
}

var (
	programsMutex sync.Mutex
	programs      = make(map[solana.PublicKey]*Program)
)

func RegisterProgram(id solana.PublicKey) (*Program, error) {
	programsMutex.Lock()
	defer programsMutex.Unlock()

	if id.IsZero() {
		return nil, ErrUnregisteredInvoker
	}
	if programs[id] != nil {
		return nil, ErrProgramRegistered
	}
	p := &Program{id: id}
	programs[id] = p
	return p, nil
}

func (p *Program) ID() solana.PublicKey {
	return p.id
}

// NewLedger binds accounts to p, so the ledger can issue program signers.
func (p *Program) NewLedger(accounts Accounts) *Ledger {
	return &Ledger{
		accounts: accounts,
		invoker:  p.id,
		program:  p,
	}
}

func (l *Ledger) checkAuthority(auth Authority, expected solana.PublicKey) error {
	if auth == nil {
		return ErrMissingAuthority
	}
	err := auth.authorize(l)
	if err != nil {
		return err
	}
	if auth.Key() != expected || expected.IsZero() {
		return ErrOwnerMismatch
	}
	return nil
}
