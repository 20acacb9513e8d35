package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"fungible-token-demo/internal/flowtx"
)

//go:embed flow-schema.json
var flowSchemaBytes []byte

var flowSchema *gojsonschema.Schema

func init() {
	var err error
	flowSchema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(flowSchemaBytes))
	if err != nil {
		panic(fmt.Sprintf("failed to load flow.json schema: %v", err))
	}
}

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrUnknownAccount = errors.New("unknown account")
)

// FlowFile is the subset of flow.json this application understands, plus an
// aliases section mapping template import placeholders to contract names.
type FlowFile struct {
	Networks  map[string]string   `json:"networks"`
	Contracts map[string]Contract `json:"contracts"`
	Aliases   map[string]string   `json:"aliases"`
	Accounts  map[string]Account  `json:"accounts"`
}

type Contract struct {
	Source  string            `json:"source,omitempty"`
	Aliases map[string]string `json:"aliases"`
}

type Account struct {
	Address string     `json:"address"`
	Key     AccountKey `json:"key"`
}

type AccountKey struct {
	PrivateKey         string `json:"privateKey"`
	Index              uint32 `json:"index"`
	SignatureAlgorithm string `json:"signatureAlgorithm,omitempty"`
	HashAlgorithm      string `json:"hashAlgorithm,omitempty"`
}

// UnmarshalJSON accepts both the short form (a bare private key string) and
// the advanced object form.
func (k *AccountKey) UnmarshalJSON(data []byte) error {
	var short string
	if err := json.Unmarshal(data, &short); err == nil {
		*k = AccountKey{PrivateKey: short}
		return nil
	}
	type advanced AccountKey
	var a advanced
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*k = AccountKey(a)
	return nil
}

func LoadFlowFile(path string) (*FlowFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := ParseFlowFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFlowFile validates data against the embedded schema before decoding
// it. Private keys may reference environment variables ("$FLOW_KEY").
func ParseFlowFile(data []byte) (*FlowFile, error) {
	result, err := flowSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}

	var f FlowFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	for name, acct := range f.Accounts {
		acct.Key.PrivateKey = os.ExpandEnv(acct.Key.PrivateKey)
		f.Accounts[name] = acct
	}
	return &f, nil
}

func (f *FlowFile) Host(network string) (string, error) {
	host, ok := f.Networks[network]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}
	return host, nil
}

// ImportAliases resolves every template alias to the address its contract
// is deployed at on network.
func (f *FlowFile) ImportAliases(network string) (flowtx.Aliases, error) {
	if _, ok := f.Networks[network]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, network)
	}

	aliases := make(flowtx.Aliases, len(f.Aliases))
	for alias, contract := range f.Aliases {
		c, ok := f.Contracts[contract]
		if !ok {
			return nil, fmt.Errorf("alias %s: unknown contract %s", alias, contract)
		}
		raw, ok := c.Aliases[network]
		if !ok {
			return nil, fmt.Errorf("alias %s: contract %s has no address on %s", alias, contract, network)
		}
		addr, err := flowtx.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", alias, err)
		}
		aliases[alias] = addr
	}
	return aliases, nil
}
