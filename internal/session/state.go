package session

import "fungible-token-demo/internal/flowtx"

const initialBalance = "0.0"

// State is everything the view renders for one session.
type State struct {
	LoggedIn        bool   `json:"loggedIn"`
	Account         string `json:"account,omitempty"`
	Address         string `json:"address,omitempty"`
	Balance         string `json:"balance"`
	Recipient       string `json:"recipient"`
	Amount          string `json:"amount"`
	LastTransaction string `json:"lastTransaction,omitempty"`
	LastError       string `json:"lastError,omitempty"`
}

func Initial() State {
	return State{Balance: initialBalance}
}

type Action interface {
	isAction()
}

// IdentityChanged is dispatched on login (Identity set) and logout (nil).
type IdentityChanged struct {
	Identity *flowtx.Identity
}

type RecipientEdited struct{ Value string }

type AmountEdited struct{ Value string }

type BalanceFetched struct{ Balance string }

type TransactionSubmitted struct {
	Kind string
	ID   string
}

type ActionFailed struct{ Err error }

func (IdentityChanged) isAction()      {}
func (RecipientEdited) isAction()      {}
func (AmountEdited) isAction()         {}
func (BalanceFetched) isAction()       {}
func (TransactionSubmitted) isAction() {}
func (ActionFailed) isAction()         {}

// Reduce returns the state that follows s after a.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case IdentityChanged:
		if a.Identity == nil {
			return Initial()
		}
		next := Initial()
		next.LoggedIn = true
		next.Account = a.Identity.Name
		next.Address = a.Identity.Address.HexWithPrefix()
		return next
	case RecipientEdited:
		s.Recipient = a.Value
	case AmountEdited:
		s.Amount = a.Value
	case BalanceFetched:
		s.Balance = a.Balance
		s.LastError = ""
	case TransactionSubmitted:
		s.LastTransaction = a.ID
		s.LastError = ""
	case ActionFailed:
		if a.Err != nil {
			s.LastError = a.Err.Error()
		}
	}
	return s
}
