package entangler

import (
	"github.com/MixinNetwork/entangler/token"
)

// invoker holds the only registration of ProgramID, so no other package
// can build a ledger that signs for the custody.
var invoker = registerInvoker()

func registerInvoker() *token.Program {
	p, err := token.RegisterProgram(ProgramID)
	if err != nil {
		panic(err)
	}
	return p
}

// custody is the program derived signer of the escrow accounts. Only the
// ledger of a running request accepts it.
func (inv *invocation) custody() (token.Authority, error) {
	return inv.ledger.InvokeSigned([]byte(SeedAuthority), []byte{custodyBump})
}
