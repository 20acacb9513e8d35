package flowtx

import (
	"fmt"
	"regexp"

	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
)

// DefaultComputeLimit is the computation ceiling attached to every mutation
// unless configured otherwise.
const DefaultComputeLimit uint64 = 999

// Aliases maps template import placeholders such as 0xDeployer to the
// account that hosts the contract on the selected network.
type Aliases map[string]flow.Address

// Arg is a caller-supplied argument before it is checked against the
// template's parameter schema.
type Arg struct {
	Type  ParamType
	Value string
}

func AddressArg(v string) Arg { return Arg{Type: TypeAddress, Value: v} }

func UFix64Arg(v string) Arg { return Arg{Type: TypeUFix64, Value: v} }

// Argument is a validated, normalised argument bound to a template param.
type Argument struct {
	Name  string
	Type  ParamType
	Value string
}

// Descriptor is an invocation-ready remote call. Queries leave the signing
// fields empty.
type Descriptor struct {
	Template     string
	Kind         Kind
	Script       []byte
	Args         []Argument
	Proposer     *Identity
	Payer        *Identity
	Authorizers  []*Identity
	ComputeLimit uint64
}

// CadenceArgs encodes the arguments in template order.
func (d *Descriptor) CadenceArgs() ([]cadence.Value, error) {
	values := make([]cadence.Value, 0, len(d.Args))
	for _, a := range d.Args {
		switch a.Type {
		case TypeAddress:
			addr, err := ParseAddress(a.Value)
			if err != nil {
				return nil, err
			}
			values = append(values, cadence.NewAddress(addr))
		case TypeUFix64:
			v, err := cadence.NewUFix64(a.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
			}
			values = append(values, v)
		default:
			return nil, fmt.Errorf("%w: unsupported type %s", ErrArgumentMismatch, a.Type)
		}
	}
	return values, nil
}

// Builder assembles descriptors from templates.
type Builder struct {
	aliases Aliases
	limit   uint64
}

func NewBuilder(aliases Aliases, limit uint64) *Builder {
	return &Builder{aliases: aliases, limit: limit}
}

func (b *Builder) Query(tpl *Template, args ...Arg) (*Descriptor, error) {
	if tpl.Kind != Query {
		return nil, fmt.Errorf("%w: %s is a %s", ErrWrongKind, tpl.Name, tpl.Kind)
	}
	return b.build(tpl, args)
}

func (b *Builder) Mutation(tpl *Template, roles Roles, args ...Arg) (*Descriptor, error) {
	if tpl.Kind != Mutation {
		return nil, fmt.Errorf("%w: %s is a %s", ErrWrongKind, tpl.Name, tpl.Kind)
	}
	if b.limit == 0 {
		return nil, ErrComputeLimit
	}
	if err := roles.validate(); err != nil {
		return nil, err
	}

	d, err := b.build(tpl, args)
	if err != nil {
		return nil, err
	}
	d.Proposer = roles.Proposer
	d.Payer = roles.Payer
	d.Authorizers = append([]*Identity(nil), roles.Authorizers...)
	d.ComputeLimit = b.limit
	return d, nil
}

func (b *Builder) build(tpl *Template, args []Arg) (*Descriptor, error) {
	if len(args) != len(tpl.Params) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgumentMismatch, tpl.Name, len(tpl.Params), len(args))
	}

	bound := make([]Argument, len(args))
	for i, arg := range args {
		param := tpl.Params[i]
		if arg.Type != param.Type {
			return nil, fmt.Errorf("%w: %s argument %d (%s) wants %s, got %s",
				ErrArgumentMismatch, tpl.Name, i, param.Name, param.Type, arg.Type)
		}
		v, err := normalize(arg)
		if err != nil {
			return nil, err
		}
		bound[i] = Argument{Name: param.Name, Type: param.Type, Value: v}
	}

	script, err := b.resolveImports(tpl.Source)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", tpl.Name, err)
	}

	return &Descriptor{
		Template: tpl.Name,
		Kind:     tpl.Kind,
		Script:   []byte(script),
		Args:     bound,
	}, nil
}

func normalize(arg Arg) (string, error) {
	switch arg.Type {
	case TypeAddress:
		addr, err := ParseAddress(arg.Value)
		if err != nil {
			return "", err
		}
		return addr.HexWithPrefix(), nil
	case TypeUFix64:
		return FormatAmount(arg.Value)
	}
	return "", fmt.Errorf("%w: unsupported type %s", ErrArgumentMismatch, arg.Type)
}

var (
	importPattern  = regexp.MustCompile(`(import\s+\w+\s+from\s+)(0x\w+)`)
	literalAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{1,16}$`)
)

func (b *Builder) resolveImports(src string) (string, error) {
	var unresolved error
	out := importPattern.ReplaceAllStringFunc(src, func(stmt string) string {
		m := importPattern.FindStringSubmatch(stmt)
		if addr, ok := b.aliases[m[2]]; ok {
			return m[1] + addr.HexWithPrefix()
		}
		if !literalAddress.MatchString(m[2]) && unresolved == nil {
			unresolved = fmt.Errorf("%w: %s", ErrUnresolvedAlias, m[2])
		}
		return stmt
	})
	if unresolved != nil {
		return "", unresolved
	}
	return out, nil
}

func errMissing(role string) error {
	return fmt.Errorf("%w: %s", ErrMissingRole, role)
}
