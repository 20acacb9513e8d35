package flowtx

import (
	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/crypto"
)

// Identity is an account able to sign a transaction in any role with one of
// its keys.
type Identity struct {
	Name     string
	Address  flow.Address
	KeyIndex uint32
	Signer   crypto.Signer
}

// Roles assigns identities to the proposer, payer and authorizer slots of a
// mutation.
type Roles struct {
	Proposer    *Identity
	Payer       *Identity
	Authorizers []*Identity
}

// SingleSigner lets one identity fill every role, the way a script signs with
// the server account and a wallet session signs with the logged-in user.
func SingleSigner(id *Identity) Roles {
	return Roles{
		Proposer:    id,
		Payer:       id,
		Authorizers: []*Identity{id},
	}
}

func (r Roles) validate() error {
	if r.Proposer == nil {
		return errMissing("proposer")
	}
	if r.Payer == nil {
		return errMissing("payer")
	}
	if len(r.Authorizers) == 0 {
		return errMissing("authorizer")
	}
	for _, a := range r.Authorizers {
		if a == nil {
			return errMissing("authorizer")
		}
	}
	return nil
}
