package flowtx

import (
	"strings"
	"testing"

	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAliases = Aliases{
	"0xStandard": flow.HexToAddress("ee82856bf20e2aa6"),
	"0xDeployer": flow.HexToAddress("f8d6e0586b0a20c7"),
}

func serverIdentity() *Identity {
	return &Identity{Name: "emulator-account", Address: flow.HexToAddress("f8d6e0586b0a20c7")}
}

func TestMintDescriptor(t *testing.T) {
	signer := serverIdentity()
	b := NewBuilder(testAliases, DefaultComputeLimit)

	d, err := b.Mutation(MintTokens, SingleSigner(signer), AddressArg("0xf8d6e0586b0a20c7"), UFix64Arg("30.0"))
	require.NoError(t, err)

	assert.Equal(t, Mutation, d.Kind)
	assert.Equal(t, uint64(999), d.ComputeLimit)
	require.Len(t, d.Args, 2)
	assert.Equal(t, Argument{Name: "recipient", Type: TypeAddress, Value: "0xf8d6e0586b0a20c7"}, d.Args[0])
	assert.Equal(t, Argument{Name: "amount", Type: TypeUFix64, Value: "30.00"}, d.Args[1])
	require.Len(t, d.Authorizers, 1)
	assert.Same(t, signer, d.Authorizers[0])
	assert.Same(t, signer, d.Proposer)
	assert.Same(t, signer, d.Payer)
}

func TestTransferArgumentOrderFollowsTemplate(t *testing.T) {
	b := NewBuilder(testAliases, DefaultComputeLimit)

	d, err := b.Mutation(TransferTokens, SingleSigner(serverIdentity()), UFix64Arg("30.456"), AddressArg("01cf0e2f2f715450"))
	require.NoError(t, err)
	require.Len(t, d.Args, 2)
	assert.Equal(t, "amount", d.Args[0].Name)
	assert.Equal(t, "30.46", d.Args[0].Value)
	assert.Equal(t, "recipient", d.Args[1].Name)
	assert.Equal(t, "0x01cf0e2f2f715450", d.Args[1].Value)

	_, err = b.Mutation(TransferTokens, SingleSigner(serverIdentity()), AddressArg("01cf0e2f2f715450"), UFix64Arg("30"))
	assert.ErrorIs(t, err, ErrArgumentMismatch)
}

func TestQueryCarriesNoSigners(t *testing.T) {
	b := NewBuilder(testAliases, DefaultComputeLimit)

	d, err := b.Query(GetBalance, AddressArg("0xf8d6e0586b0a20c7"))
	require.NoError(t, err)
	assert.Equal(t, Query, d.Kind)
	assert.Nil(t, d.Proposer)
	assert.Nil(t, d.Payer)
	assert.Empty(t, d.Authorizers)
	assert.Zero(t, d.ComputeLimit)
}

func TestBuilderRejects(t *testing.T) {
	b := NewBuilder(testAliases, DefaultComputeLimit)
	signer := serverIdentity()

	t.Run("wrong arity", func(t *testing.T) {
		_, err := b.Query(GetBalance)
		assert.ErrorIs(t, err, ErrArgumentMismatch)
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := b.Query(SetupVault)
		assert.ErrorIs(t, err, ErrWrongKind)
		_, err = b.Mutation(GetBalance, SingleSigner(signer), AddressArg("0x01"))
		assert.ErrorIs(t, err, ErrWrongKind)
	})

	t.Run("missing authorizer", func(t *testing.T) {
		_, err := b.Mutation(SetupVault, Roles{Proposer: signer, Payer: signer})
		assert.ErrorIs(t, err, ErrMissingRole)
	})

	t.Run("missing payer", func(t *testing.T) {
		_, err := b.Mutation(SetupVault, Roles{Proposer: signer, Authorizers: []*Identity{signer}})
		assert.ErrorIs(t, err, ErrMissingRole)
	})

	t.Run("zero limit", func(t *testing.T) {
		_, err := NewBuilder(testAliases, 0).Mutation(SetupVault, SingleSigner(signer))
		assert.ErrorIs(t, err, ErrComputeLimit)
	})

	t.Run("bad amount", func(t *testing.T) {
		_, err := b.Mutation(MintTokens, SingleSigner(signer), AddressArg("0x01"), UFix64Arg("ten"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unresolved alias", func(t *testing.T) {
		_, err := NewBuilder(Aliases{}, DefaultComputeLimit).Mutation(SetupVault, SingleSigner(signer))
		assert.ErrorIs(t, err, ErrUnresolvedAlias)
	})
}

func TestImportsResolved(t *testing.T) {
	d, err := NewBuilder(testAliases, DefaultComputeLimit).Mutation(SetupVault, SingleSigner(serverIdentity()))
	require.NoError(t, err)

	script := string(d.Script)
	assert.Contains(t, script, "import FungibleToken from 0xee82856bf20e2aa6")
	assert.Contains(t, script, "import ExampleToken from 0xf8d6e0586b0a20c7")
	assert.False(t, strings.Contains(script, "0xDeployer"))
}

func TestCadenceArgs(t *testing.T) {
	d, err := NewBuilder(testAliases, DefaultComputeLimit).Mutation(MintTokens, SingleSigner(serverIdentity()),
		AddressArg("0xf8d6e0586b0a20c7"), UFix64Arg("30"))
	require.NoError(t, err)

	values, err := d.CadenceArgs()
	require.NoError(t, err)
	require.Len(t, values, 2)

	amount, err := cadence.NewUFix64("30.00")
	require.NoError(t, err)
	assert.Equal(t, cadence.NewAddress(flow.HexToAddress("f8d6e0586b0a20c7")), values[0])
	assert.Equal(t, amount, values[1])
}

func TestTemplateSchemaMatchesSource(t *testing.T) {
	_, err := NewTemplate("bad", Mutation, "transaction(amount: UFix64, recipient: Address) {}",
		Param{"recipient", TypeAddress}, Param{"amount", TypeUFix64})
	assert.Error(t, err)

	params, err := ParseParams(Query, GetBalance.Source)
	require.NoError(t, err)
	assert.Equal(t, []Param{{"account", TypeAddress}}, params)

	params, err = ParseParams(Mutation, SetupVault.Source)
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestParseParamsParenthesizedTypes(t *testing.T) {
	src := `import FungibleToken from 0xStandard

transaction(receiver: Capability<auth(FungibleToken.Withdraw) &{FungibleToken.Vault}>, amount: UFix64) {
    prepare(signer: &Account) {}
}`
	params, err := ParseParams(Mutation, src)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "receiver", params[0].Name)
	assert.Equal(t, Param{"amount", TypeUFix64}, params[1])
}

func TestParseParamsRejectsInvalidSource(t *testing.T) {
	_, err := ParseParams(Mutation, "transaction(amount: UFix64 {")
	assert.Error(t, err)

	_, err = ParseParams(Query, "access(all) fun helper(): Int { return 1 }")
	assert.Error(t, err)

	_, err = ParseParams(Mutation, "access(all) fun main(): Int { return 1 }")
	assert.Error(t, err)
}
