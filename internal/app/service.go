package app

import (
	"context"
	"fmt"
	"time"

	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	"go.uber.org/zap"

	"fungible-token-demo/internal/flowtx"
	"fungible-token-demo/internal/model"
	"fungible-token-demo/internal/session"
)

// Invoker sends descriptors to the network.
type Invoker interface {
	Query(ctx context.Context, d *flowtx.Descriptor) (cadence.Value, error)
	Mutate(ctx context.Context, d *flowtx.Descriptor) (flow.Identifier, error)
}

// Keyring resolves the identities a session may log in as.
type Keyring interface {
	Identity(ref string) (*flowtx.Identity, error)
	Names() []string
}

type Service struct {
	builder *flowtx.Builder
	invoker Invoker
	journal Journal
	keyring Keyring
	server  *flowtx.Identity
	log     *zap.Logger
	now     func() time.Time
}

type Options struct {
	Builder *flowtx.Builder
	Invoker Invoker
	Journal Journal
	Keyring Keyring
	// Server signs script-context mutations such as minting.
	Server *flowtx.Identity
	Logger *zap.Logger
}

func NewService(opts Options) *Service {
	s := &Service{
		builder: opts.Builder,
		invoker: opts.Invoker,
		journal: opts.Journal,
		keyring: opts.Keyring,
		server:  opts.Server,
		log:     opts.Logger,
		now:     time.Now,
	}
	if s.journal == nil {
		s.journal = NewMemoryJournal()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Accounts lists the accounts a session may log in as.
func (s *Service) Accounts() []string {
	if s.keyring == nil {
		return nil
	}
	var names []string
	for _, name := range s.keyring.Names() {
		if s.server != nil && name == s.server.Name {
			continue
		}
		names = append(names, name)
	}
	return names
}

// MintTokens mints amount tokens into recipient's vault, signed by the
// server identity.
func (s *Service) MintTokens(ctx context.Context, recipient, amount string) (*model.Transaction, error) {
	const op = "mint tokens"
	if s.server == nil {
		return nil, wrap(op, ErrNotAuthenticated)
	}
	tx, err := s.submit(ctx, op, flowtx.MintTokens, s.server, flowtx.AddressArg(recipient), flowtx.UFix64Arg(amount))
	return tx, wrap(op, err)
}

func (s *Service) SetupServerVault(ctx context.Context) (*model.Transaction, error) {
	const op = "setup vault"
	if s.server == nil {
		return nil, wrap(op, ErrNotAuthenticated)
	}
	tx, err := s.submit(ctx, op, flowtx.SetupVault, s.server)
	return tx, wrap(op, err)
}

func (s *Service) TransferFromServer(ctx context.Context, recipient, amount string) (*model.Transaction, error) {
	const op = "transfer tokens"
	if s.server == nil {
		return nil, wrap(op, ErrNotAuthenticated)
	}
	tx, err := s.submit(ctx, op, flowtx.TransferTokens, s.server, flowtx.UFix64Arg(amount), flowtx.AddressArg(recipient))
	return tx, wrap(op, err)
}

// Balance reads the token balance of address.
func (s *Service) Balance(ctx context.Context, address string) (*model.Wallet, error) {
	const op = "get balance"
	d, err := s.builder.Query(flowtx.GetBalance, flowtx.AddressArg(address))
	if err != nil {
		return nil, wrap(op, err)
	}

	v, err := s.invoker.Query(ctx, d)
	if err != nil {
		return nil, invokeError(op, err)
	}
	balance, ok := v.(cadence.UFix64)
	if !ok {
		return nil, wrap(op, fmt.Errorf("unexpected result %T", v))
	}
	return &model.Wallet{Address: d.Args[0].Value, Balance: balance.String()}, nil
}

func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	txs, err := s.journal.Recent(ctx, limit)
	return txs, wrap("recent transactions", err)
}

// Login authenticates sess as the keyring account named ref.
func (s *Service) Login(sess *session.Session, ref string) (session.State, error) {
	if s.keyring == nil {
		return sess.Store().State(), s.fail(sess, wrap("login", ErrNotAuthenticated))
	}
	id, err := s.keyring.Identity(ref)
	if err != nil {
		return sess.Store().State(), s.fail(sess, wrap("login", err))
	}
	if s.server != nil && id.Address == s.server.Address {
		return sess.Store().State(), s.fail(sess, wrap("login", fmt.Errorf("%w: %s", ErrReservedAccount, ref)))
	}
	sess.SetIdentity(id)
	s.log.Info("session authenticated", zap.String("session", sess.ID), zap.String("account", id.Name))
	return sess.Store().State(), nil
}

func (s *Service) Logout(sess *session.Session) session.State {
	sess.SetIdentity(nil)
	s.log.Info("session logged out", zap.String("session", sess.ID))
	return sess.Store().State()
}

func (s *Service) EditRecipient(sess *session.Session, value string) session.State {
	return sess.Store().Dispatch(session.RecipientEdited{Value: value})
}

func (s *Service) EditAmount(sess *session.Session, value string) session.State {
	return sess.Store().Dispatch(session.AmountEdited{Value: value})
}

// RefreshBalance queries the logged-in account's balance into the session.
func (s *Service) RefreshBalance(ctx context.Context, sess *session.Session) (session.State, error) {
	id := sess.Identity()
	if id == nil {
		return sess.Store().State(), s.fail(sess, wrap("get balance", ErrNotAuthenticated))
	}
	w, err := s.Balance(ctx, id.Address.HexWithPrefix())
	if err != nil {
		return sess.Store().State(), s.fail(sess, err)
	}
	return sess.Store().Dispatch(session.BalanceFetched{Balance: w.Balance}), nil
}

// SetupVault creates the token vault of the logged-in account.
func (s *Service) SetupVault(ctx context.Context, sess *session.Session) (*model.Transaction, error) {
	const op = "setup vault"
	id := sess.Identity()
	if id == nil {
		return nil, s.fail(sess, wrap(op, ErrNotAuthenticated))
	}
	tx, err := s.submit(ctx, op, flowtx.SetupVault, id)
	if err != nil {
		return nil, s.fail(sess, wrap(op, err))
	}
	sess.Store().Dispatch(session.TransactionSubmitted{Kind: tx.Kind, ID: tx.ID})
	return tx, nil
}

// Transfer sends tokens from the logged-in account. Empty recipient or
// amount fall back to the session's form fields.
func (s *Service) Transfer(ctx context.Context, sess *session.Session, recipient, amount string) (*model.Transaction, error) {
	const op = "transfer tokens"
	id := sess.Identity()
	if id == nil {
		return nil, s.fail(sess, wrap(op, ErrNotAuthenticated))
	}

	form := sess.Store().State()
	if recipient == "" {
		recipient = form.Recipient
	}
	if amount == "" {
		amount = form.Amount
	}

	tx, err := s.submit(ctx, op, flowtx.TransferTokens, id, flowtx.UFix64Arg(amount), flowtx.AddressArg(recipient))
	if err != nil {
		return nil, s.fail(sess, wrap(op, err))
	}
	sess.Store().Dispatch(session.TransactionSubmitted{Kind: tx.Kind, ID: tx.ID})
	return tx, nil
}

func (s *Service) submit(ctx context.Context, op string, tpl *flowtx.Template, signer *flowtx.Identity, args ...flowtx.Arg) (*model.Transaction, error) {
	d, err := s.builder.Mutation(tpl, flowtx.SingleSigner(signer), args...)
	if err != nil {
		return nil, err
	}

	id, err := s.invoker.Mutate(ctx, d)
	if err != nil {
		return nil, invokeError(op, err)
	}

	tx := &model.Transaction{
		ID:          id.String(),
		Kind:        tpl.Name,
		Signer:      signer.Address.HexWithPrefix(),
		Recipient:   argValue(d, "recipient"),
		Amount:      argValue(d, "amount"),
		SubmittedAt: s.now().UTC(),
	}
	if err := s.journal.Record(ctx, *tx); err != nil {
		s.log.Warn("failed to record transaction", zap.String("tx_id", tx.ID), zap.Error(err))
	}
	s.log.Info("transaction submitted",
		zap.String("op", op),
		zap.String("tx_id", tx.ID),
		zap.String("signer", tx.Signer),
	)
	return tx, nil
}

func (s *Service) fail(sess *session.Session, err error) error {
	sess.Store().Dispatch(session.ActionFailed{Err: err})
	s.log.Warn("session action failed",
		zap.String("session", sess.ID),
		zap.Stringer("kind", KindOf(err)),
		zap.Error(err),
	)
	return err
}

func argValue(d *flowtx.Descriptor, name string) string {
	for _, a := range d.Args {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}
