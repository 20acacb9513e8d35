package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fungible-token-demo/internal/config"
	"fungible-token-demo/internal/flowclient"
	"fungible-token-demo/internal/flowtx"
	"fungible-token-demo/internal/model"
	"fungible-token-demo/internal/session"
)

const txHex = "4b8b2b3b0b1d8c3ab1e1c3f63b2fa2d7d3c9e4b0f65c0f2f0b2b1f3a9d0c7e11"

type stubInvoker struct {
	queries   []*flowtx.Descriptor
	mutations []*flowtx.Descriptor
	result    cadence.Value
	err       error
}

func (s *stubInvoker) Query(_ context.Context, d *flowtx.Descriptor) (cadence.Value, error) {
	s.queries = append(s.queries, d)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubInvoker) Mutate(_ context.Context, d *flowtx.Descriptor) (flow.Identifier, error) {
	s.mutations = append(s.mutations, d)
	if s.err != nil {
		return flow.EmptyID, s.err
	}
	return flow.HexToID(txHex), nil
}

type stubKeyring map[string]*flowtx.Identity

func (k stubKeyring) Identity(ref string) (*flowtx.Identity, error) {
	if id, ok := k[ref]; ok {
		return id, nil
	}
	for _, id := range k {
		if id.Address.HexWithPrefix() == ref {
			return id, nil
		}
	}
	return nil, config.ErrUnknownAccount
}

func (k stubKeyring) Names() []string {
	var names []string
	for name := range k {
		names = append(names, name)
	}
	return names
}

type failingJournal struct{ MemoryJournal }

func (j *failingJournal) Record(context.Context, model.Transaction) error {
	return errors.New("journal down")
}

type ServiceSuite struct {
	suite.Suite
	invoker *stubInvoker
	journal *MemoryJournal
	server  *flowtx.Identity
	alice   *flowtx.Identity
	svc     *Service
	now     time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.invoker = &stubInvoker{}
	s.journal = NewMemoryJournal()
	s.server = &flowtx.Identity{Name: "emulator-account", Address: flow.HexToAddress("f8d6e0586b0a20c7")}
	s.alice = &flowtx.Identity{Name: "alice", Address: flow.HexToAddress("01cf0e2f2f715450")}
	s.now = time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)

	aliases := flowtx.Aliases{
		"0xStandard": flow.HexToAddress("ee82856bf20e2aa6"),
		"0xDeployer": flow.HexToAddress("f8d6e0586b0a20c7"),
	}
	s.svc = NewService(Options{
		Builder: flowtx.NewBuilder(aliases, flowtx.DefaultComputeLimit),
		Invoker: s.invoker,
		Journal: s.journal,
		Keyring: stubKeyring{"alice": s.alice, "emulator-account": s.server},
		Server:  s.server,
	})
	s.svc.now = func() time.Time { return s.now }
}

func (s *ServiceSuite) TestMintTokens() {
	tx, err := s.svc.MintTokens(context.Background(), "0xf8d6e0586b0a20c7", "30.0")
	s.Require().NoError(err)

	s.Equal(flow.HexToID(txHex).String(), tx.ID)
	s.Equal("mint_tokens", tx.Kind)
	s.Equal("0xf8d6e0586b0a20c7", tx.Signer)
	s.Equal("0xf8d6e0586b0a20c7", tx.Recipient)
	s.Equal("30.00", tx.Amount)
	s.Equal(s.now, tx.SubmittedAt)

	s.Require().Len(s.invoker.mutations, 1)
	d := s.invoker.mutations[0]
	s.Equal(uint64(999), d.ComputeLimit)
	s.Equal([]flowtx.Argument{
		{Name: "recipient", Type: flowtx.TypeAddress, Value: "0xf8d6e0586b0a20c7"},
		{Name: "amount", Type: flowtx.TypeUFix64, Value: "30.00"},
	}, d.Args)
	s.Require().Len(d.Authorizers, 1)
	s.Same(s.server, d.Authorizers[0])

	recent, err := s.svc.RecentTransactions(context.Background(), 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(tx.ID, recent[0].ID)
}

func (s *ServiceSuite) TestMintTokensInvalidAmount() {
	_, err := s.svc.MintTokens(context.Background(), "0xf8d6e0586b0a20c7", "thirty")
	s.Require().Error(err)
	s.Equal(KindValidation, KindOf(err))
	s.ErrorIs(err, flowtx.ErrInvalidAmount)
	s.Empty(s.invoker.mutations, "nothing is sent when validation fails")
}

func (s *ServiceSuite) TestMintTokensWithoutServerSigner() {
	s.svc.server = nil
	_, err := s.svc.MintTokens(context.Background(), "0xf8d6e0586b0a20c7", "30")
	s.Equal(KindSession, KindOf(err))
	s.ErrorIs(err, ErrNotAuthenticated)
}

func (s *ServiceSuite) TestRemoteRejectionIsDistinguishable() {
	s.invoker.err = errors.New("Signer is not the token minter")

	tx, err := s.svc.MintTokens(context.Background(), "0xf8d6e0586b0a20c7", "30")
	s.Nil(tx)
	s.Require().Error(err)
	s.Equal(KindRemote, KindOf(err))

	recent, _ := s.svc.RecentTransactions(context.Background(), 10)
	s.Empty(recent)
}

func (s *ServiceSuite) TestRemoteErrorFromClient() {
	s.invoker.err = &flowclient.RemoteError{Op: "query", Err: errors.New("Could not borrow Balance reference to the Vault")}

	w, err := s.svc.Balance(context.Background(), "0x01cf0e2f2f715450")
	s.Nil(w)
	s.Equal(KindRemote, KindOf(err))
	var remote *flowclient.RemoteError
	s.ErrorAs(err, &remote)
}

func (s *ServiceSuite) TestBalance() {
	v, err := cadence.NewUFix64("12.5")
	s.Require().NoError(err)
	s.invoker.result = v

	w, err := s.svc.Balance(context.Background(), "01cf0e2f2f715450")
	s.Require().NoError(err)
	s.Equal("0x01cf0e2f2f715450", w.Address)
	s.Equal(v.String(), w.Balance)

	s.Require().Len(s.invoker.queries, 1)
	d := s.invoker.queries[0]
	s.Nil(d.Proposer)
	s.Nil(d.Payer)
	s.Empty(d.Authorizers)
}

func (s *ServiceSuite) TestBalanceUnexpectedResult() {
	s.invoker.result = cadence.String("nope")
	_, err := s.svc.Balance(context.Background(), "01cf0e2f2f715450")
	s.Equal(KindInternal, KindOf(err))
}

func (s *ServiceSuite) TestSessionFlow() {
	ctx := context.Background()
	sess := session.NewRegistry().Create()

	var states []session.State
	unsubscribe := sess.Store().Subscribe(func(st session.State) { states = append(states, st) })
	defer unsubscribe()

	_, err := s.svc.Transfer(ctx, sess, "", "")
	s.Equal(KindSession, KindOf(err))
	s.Contains(sess.Store().State().LastError, "not authenticated")
	s.Empty(s.invoker.mutations)

	st, err := s.svc.Login(sess, "alice")
	s.Require().NoError(err)
	s.True(st.LoggedIn)
	s.Equal("0x01cf0e2f2f715450", st.Address)

	s.svc.EditRecipient(sess, "0xf8d6e0586b0a20c7")
	s.svc.EditAmount(sess, "30.456")

	tx, err := s.svc.Transfer(ctx, sess, "", "")
	s.Require().NoError(err)
	s.Equal("transfer_tokens", tx.Kind)
	s.Equal("30.46", tx.Amount)
	s.Equal("0x01cf0e2f2f715450", tx.Signer)
	s.Equal(tx.ID, sess.Store().State().LastTransaction)

	d := s.invoker.mutations[0]
	s.Equal("amount", d.Args[0].Name)
	s.Equal("recipient", d.Args[1].Name)
	s.Same(s.alice, d.Payer)

	v, err := cadence.NewUFix64("69.54")
	s.Require().NoError(err)
	s.invoker.result = v
	st, err = s.svc.RefreshBalance(ctx, sess)
	s.Require().NoError(err)
	s.Equal(v.String(), st.Balance)

	setup, err := s.svc.SetupVault(ctx, sess)
	s.Require().NoError(err)
	s.Equal("setup_vault", setup.Kind)
	s.Empty(setup.Amount)

	st = s.svc.Logout(sess)
	s.False(st.LoggedIn)
	s.Equal("0.0", st.Balance)

	s.NotEmpty(states)
	s.False(states[len(states)-1].LoggedIn)
}

func (s *ServiceSuite) TestRejectedTransferSurfacesInSession() {
	sess := session.NewRegistry().Create()
	_, err := s.svc.Login(sess, "alice")
	s.Require().NoError(err)

	s.invoker.err = errors.New("Could not borrow reference to the owner's Vault!")
	_, err = s.svc.Transfer(context.Background(), sess, "0xf8d6e0586b0a20c7", "1")
	s.Equal(KindRemote, KindOf(err))
	s.Contains(sess.Store().State().LastError, "owner's Vault")
}

func (s *ServiceSuite) TestLoginUnknownAccount() {
	sess := session.NewRegistry().Create()
	_, err := s.svc.Login(sess, "mallory")
	s.Equal(KindSession, KindOf(err))
	s.False(sess.Store().State().LoggedIn)
}

func (s *ServiceSuite) TestLoginAsServerSignerRejected() {
	sess := session.NewRegistry().Create()
	_, err := s.svc.Login(sess, "emulator-account")
	s.Equal(KindSession, KindOf(err))
	s.ErrorIs(err, ErrReservedAccount)
	s.Nil(sess.Identity())
	s.False(sess.Store().State().LoggedIn)

	_, err = s.svc.Login(sess, "0xf8d6e0586b0a20c7")
	s.ErrorIs(err, ErrReservedAccount, "lookup by address is rejected too")
}

func (s *ServiceSuite) TestAccountsExcludesServerSigner() {
	s.Equal([]string{"alice"}, s.svc.Accounts())
}

func (s *ServiceSuite) TestJournalFailureDoesNotFailSubmission() {
	s.svc.journal = &failingJournal{}
	tx, err := s.svc.SetupServerVault(context.Background())
	s.Require().NoError(err)
	s.Equal("setup_vault", tx.Kind)
}

func (s *ServiceSuite) TestTransferFromServer() {
	tx, err := s.svc.TransferFromServer(context.Background(), "01cf0e2f2f715450", "5")
	s.Require().NoError(err)
	s.Equal("5.00", tx.Amount)
	s.Equal("0x01cf0e2f2f715450", tx.Recipient)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func TestMemoryJournalRecent(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, j.Record(ctx, model.Transaction{ID: id}))
	}

	txs, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "c", txs[0].ID)
	assert.Equal(t, "b", txs[1].ID)

	txs, err = j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 3)

	txs, err = j.Recent(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindValidation, KindOf(wrap("op", flowtx.ErrInvalidAddress)))
	assert.Equal(t, KindSession, KindOf(wrap("op", session.ErrNotFound)))
	assert.Equal(t, KindRemote, KindOf(invokeError("op", errors.New("rejected"))))
	assert.Equal(t, KindInternal, KindOf(invokeError("op", flowtx.ErrWrongKind)))
	assert.Equal(t, "remote", KindRemote.String())
}
