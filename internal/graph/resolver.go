package graph

import (
	"context"

	"fungible-token-demo/internal/app"
	"fungible-token-demo/internal/model"
	"fungible-token-demo/internal/session"
)

type Resolver struct {
	Service  *app.Service
	Sessions *session.Registry
}

type LoginArgs struct {
	Session string `json:"session"`
	Account string `json:"account"`
}

type EditArgs struct {
	Session string `json:"session"`
	Value   string `json:"value"`
}

type TransferArgs struct {
	Session   string `json:"session"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (r *Resolver) CreateSession() *model.Session {
	s := r.Sessions.Create()
	return sessionView(s.ID, s.Store().State())
}

func (r *Resolver) Session(id string) (*model.Session, error) {
	s, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return sessionView(s.ID, s.Store().State()), nil
}

func (r *Resolver) CloseSession(id string) (bool, error) {
	if err := r.Sessions.Close(id); err != nil {
		return false, &app.Error{Kind: app.KindSession, Op: "close session", Err: err}
	}
	return true, nil
}

func (r *Resolver) Login(args LoginArgs) (*model.Session, error) {
	s, err := r.lookup(args.Session)
	if err != nil {
		return nil, err
	}
	st, err := r.Service.Login(s, args.Account)
	if err != nil {
		return nil, err
	}
	return sessionView(s.ID, st), nil
}

func (r *Resolver) Logout(id string) (*model.Session, error) {
	s, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return sessionView(s.ID, r.Service.Logout(s)), nil
}

func (r *Resolver) EditRecipient(args EditArgs) (*model.Session, error) {
	s, err := r.lookup(args.Session)
	if err != nil {
		return nil, err
	}
	return sessionView(s.ID, r.Service.EditRecipient(s, args.Value)), nil
}

func (r *Resolver) EditAmount(args EditArgs) (*model.Session, error) {
	s, err := r.lookup(args.Session)
	if err != nil {
		return nil, err
	}
	return sessionView(s.ID, r.Service.EditAmount(s, args.Value)), nil
}

func (r *Resolver) RefreshBalance(ctx context.Context, id string) (*model.Session, error) {
	s, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	st, err := r.Service.RefreshBalance(ctx, s)
	if err != nil {
		return nil, err
	}
	return sessionView(s.ID, st), nil
}

func (r *Resolver) SetupVault(ctx context.Context, id string) (*model.Transaction, error) {
	s, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return r.Service.SetupVault(ctx, s)
}

func (r *Resolver) TransferTokens(ctx context.Context, args TransferArgs) (*model.Transaction, error) {
	s, err := r.lookup(args.Session)
	if err != nil {
		return nil, err
	}
	return r.Service.Transfer(ctx, s, args.Recipient, args.Amount)
}

func (r *Resolver) GetWallet(ctx context.Context, address string) (*model.Wallet, error) {
	return r.Service.Balance(ctx, address)
}

func (r *Resolver) Transactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	return r.Service.RecentTransactions(ctx, limit)
}

func (r *Resolver) Accounts() []string {
	return r.Service.Accounts()
}

func (r *Resolver) lookup(id string) (*session.Session, error) {
	s, err := r.Sessions.Get(id)
	if err != nil {
		return nil, &app.Error{Kind: app.KindSession, Op: "find session", Err: err}
	}
	return s, nil
}

func sessionView(id string, st session.State) *model.Session {
	return &model.Session{
		ID:              id,
		LoggedIn:        st.LoggedIn,
		Account:         st.Account,
		Address:         st.Address,
		Balance:         st.Balance,
		Recipient:       st.Recipient,
		Amount:          st.Amount,
		LastTransaction: st.LastTransaction,
		LastError:       st.LastError,
	}
}
