package flowtx

import (
	"embed"
	"fmt"

	"github.com/onflow/cadence/runtime/ast"
	"github.com/onflow/cadence/runtime/parser"
)

//go:embed templates/*.cdc
var templateFS embed.FS

type Kind int

const (
	Query Kind = iota
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

type ParamType string

const (
	TypeAddress ParamType = "Address"
	TypeUFix64  ParamType = "UFix64"
)

type Param struct {
	Name string
	Type ParamType
}

// Template is a Cadence program together with its positional parameter
// schema. The program text is opaque; only the parameter list and the import
// aliases are interpreted.
type Template struct {
	Name   string
	Kind   Kind
	Source string
	Params []Param
}

var (
	MintTokens     = MustLoad("mint_tokens", Mutation, Param{"recipient", TypeAddress}, Param{"amount", TypeUFix64})
	TransferTokens = MustLoad("transfer_tokens", Mutation, Param{"amount", TypeUFix64}, Param{"recipient", TypeAddress})
	SetupVault     = MustLoad("setup_vault", Mutation)
	GetBalance     = MustLoad("get_balance", Query, Param{"account", TypeAddress})
)

// MustLoad reads an embedded template and panics when the declared params
// disagree with the signature in the Cadence source.
func MustLoad(name string, kind Kind, params ...Param) *Template {
	src, err := templateFS.ReadFile("templates/" + name + ".cdc")
	if err != nil {
		panic(fmt.Sprintf("flowtx: load template %s: %v", name, err))
	}
	tpl, err := NewTemplate(name, kind, string(src), params...)
	if err != nil {
		panic(err)
	}
	return tpl
}

func NewTemplate(name string, kind Kind, source string, params ...Param) (*Template, error) {
	declared, err := ParseParams(kind, source)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	if len(declared) != len(params) {
		return nil, fmt.Errorf("template %s: source declares %d params, schema has %d", name, len(declared), len(params))
	}
	for i := range params {
		if declared[i] != params[i] {
			return nil, fmt.Errorf("template %s: param %d is %s: %s in source, %s: %s in schema",
				name, i, declared[i].Name, declared[i].Type, params[i].Name, params[i].Type)
		}
	}
	return &Template{Name: name, Kind: kind, Source: source, Params: params}, nil
}

// ParseParams extracts the ordered parameter list from a transaction or script
// entry point. Import aliases are replaced with a placeholder address so the
// source parses before they are resolved.
func ParseParams(kind Kind, source string) ([]Param, error) {
	code := importPattern.ReplaceAllString(source, "${1}0x01")
	program, err := parser.ParseProgram(nil, []byte(code), parser.Config{})
	if err != nil {
		return nil, fmt.Errorf("parse cadence: %w", err)
	}

	var list *ast.ParameterList
	switch kind {
	case Mutation:
		txs := program.TransactionDeclarations()
		if len(txs) != 1 {
			return nil, fmt.Errorf("expected one transaction declaration, found %d", len(txs))
		}
		list = txs[0].ParameterList
	default:
		found := false
		for _, fn := range program.FunctionDeclarations() {
			if fn.Identifier.Identifier == "main" {
				list, found = fn.ParameterList, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no %s entry point found", kind)
		}
	}

	if list == nil {
		return nil, nil
	}
	params := make([]Param, 0, len(list.Parameters))
	for _, p := range list.Parameters {
		params = append(params, Param{
			Name: p.Identifier.Identifier,
			Type: ParamType(p.TypeAnnotation.Type.String()),
		})
	}
	return params, nil
}
