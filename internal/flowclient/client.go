package flowclient

import (
	"context"
	"fmt"
	"time"

	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/access/grpc"
	"go.uber.org/zap"

	"fungible-token-demo/internal/flowtx"
	"fungible-token-demo/internal/metrics"
)

// RemoteError is returned for every failed interaction with the access node,
// whether the node was unreachable or rejected the call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("flow %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// accessAPI is the part of the access node client the application uses.
type accessAPI interface {
	ExecuteScriptAtLatestBlock(ctx context.Context, script []byte, arguments []cadence.Value) (cadence.Value, error)
	GetLatestBlockHeader(ctx context.Context, isSealed bool) (*flow.BlockHeader, error)
	GetAccount(ctx context.Context, address flow.Address) (*flow.Account, error)
	SendTransaction(ctx context.Context, tx flow.Transaction) error
	Close() error
}

// Client sends descriptors to a Flow access node.
type Client struct {
	access  accessAPI
	log     *zap.Logger
	metrics *metrics.Remote
}

func Dial(host string, log *zap.Logger, m *metrics.Remote) (*Client, error) {
	access, err := grpc.NewClient(host)
	if err != nil {
		return nil, fmt.Errorf("connect to access node %s: %w", host, err)
	}
	log.Info("connected to access node", zap.String("host", host))
	return newClient(access, log, m), nil
}

func newClient(access accessAPI, log *zap.Logger, m *metrics.Remote) *Client {
	return &Client{access: access, log: log, metrics: m}
}

func (c *Client) Close() error {
	return c.access.Close()
}

// Query executes a read-only script and returns its decoded result.
func (c *Client) Query(ctx context.Context, d *flowtx.Descriptor) (result cadence.Value, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("query", start, err) }()

	if d.Kind != flowtx.Query {
		return nil, fmt.Errorf("%w: %s is not a query", flowtx.ErrWrongKind, d.Template)
	}
	args, err := d.CadenceArgs()
	if err != nil {
		return nil, err
	}

	result, err = c.access.ExecuteScriptAtLatestBlock(ctx, d.Script, args)
	if err != nil {
		c.log.Warn("script failed", zap.String("template", d.Template), zap.Error(err))
		return nil, &RemoteError{Op: "query", Err: err}
	}
	return result, nil
}

// Mutate signs and submits a transaction. The returned identifier refers to
// a pending transaction; its outcome is not tracked.
func (c *Client) Mutate(ctx context.Context, d *flowtx.Descriptor) (id flow.Identifier, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("mutate", start, err) }()

	if d.Kind != flowtx.Mutation {
		return flow.EmptyID, fmt.Errorf("%w: %s is not a mutation", flowtx.ErrWrongKind, d.Template)
	}
	if d.Proposer == nil || d.Payer == nil || len(d.Authorizers) == 0 {
		return flow.EmptyID, flowtx.ErrMissingRole
	}
	args, err := d.CadenceArgs()
	if err != nil {
		return flow.EmptyID, err
	}

	header, err := c.access.GetLatestBlockHeader(ctx, true)
	if err != nil {
		return flow.EmptyID, &RemoteError{Op: "latest block", Err: err}
	}
	seq, err := c.sequenceNumber(ctx, d.Proposer)
	if err != nil {
		return flow.EmptyID, err
	}

	tx := flow.NewTransaction().
		SetScript(d.Script).
		SetComputeLimit(d.ComputeLimit).
		SetReferenceBlockID(header.ID).
		SetProposalKey(d.Proposer.Address, d.Proposer.KeyIndex, seq).
		SetPayer(d.Payer.Address)
	for _, a := range d.Authorizers {
		tx.AddAuthorizer(a.Address)
	}
	for _, arg := range args {
		if err := tx.AddArgument(arg); err != nil {
			return flow.EmptyID, fmt.Errorf("encode argument: %w", err)
		}
	}

	if err := sign(tx, d); err != nil {
		return flow.EmptyID, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.access.SendTransaction(ctx, *tx); err != nil {
		c.log.Warn("transaction rejected", zap.String("template", d.Template), zap.Error(err))
		return flow.EmptyID, &RemoteError{Op: "mutate", Err: err}
	}

	c.log.Info("transaction submitted",
		zap.String("template", d.Template),
		zap.String("tx_id", tx.ID().String()),
		zap.String("payer", d.Payer.Address.HexWithPrefix()),
	)
	return tx.ID(), nil
}

func (c *Client) sequenceNumber(ctx context.Context, proposer *flowtx.Identity) (uint64, error) {
	acct, err := c.access.GetAccount(ctx, proposer.Address)
	if err != nil {
		return 0, &RemoteError{Op: "get account", Err: err}
	}
	for _, k := range acct.Keys {
		if k.Index == proposer.KeyIndex {
			return k.SequenceNumber, nil
		}
	}
	return 0, &RemoteError{Op: "get account", Err: fmt.Errorf("account %s has no key %d", proposer.Address.HexWithPrefix(), proposer.KeyIndex)}
}

// sign adds payload signatures for every proposer or authorizer account that
// is not the payer, then the payer's envelope signature.
func sign(tx *flow.Transaction, d *flowtx.Descriptor) error {
	type signerKey struct {
		addr  flow.Address
		index uint32
	}
	done := make(map[signerKey]bool)

	payload := append([]*flowtx.Identity{d.Proposer}, d.Authorizers...)
	for _, id := range payload {
		k := signerKey{id.Address, id.KeyIndex}
		if id.Address == d.Payer.Address || done[k] {
			continue
		}
		if id.Signer == nil {
			return fmt.Errorf("no signer for %s", id.Address.HexWithPrefix())
		}
		if err := tx.SignPayload(id.Address, id.KeyIndex, id.Signer); err != nil {
			return err
		}
		done[k] = true
	}

	if d.Payer.Signer == nil {
		return fmt.Errorf("no signer for payer %s", d.Payer.Address.HexWithPrefix())
	}
	return tx.SignEnvelope(d.Payer.Address, d.Payer.KeyIndex, d.Payer.Signer)
}
