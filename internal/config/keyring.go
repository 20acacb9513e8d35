package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/onflow/flow-go-sdk/crypto"
	"go.uber.org/zap"

	"fungible-token-demo/internal/flowtx"
)

// Keyring holds the signing identities declared in flow.json. Accounts whose
// key is empty after environment expansion are left out.
type Keyring struct {
	identities map[string]*flowtx.Identity
	keyless    map[string]bool
}

func NewKeyring(f *FlowFile, log *zap.Logger) (*Keyring, error) {
	k := &Keyring{
		identities: make(map[string]*flowtx.Identity, len(f.Accounts)),
		keyless:    make(map[string]bool),
	}
	for name, acct := range f.Accounts {
		if acct.Key.PrivateKey == "" {
			log.Warn("account has no private key, skipping", zap.String("account", name))
			k.keyless[name] = true
			continue
		}
		id, err := newIdentity(name, acct)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", name, err)
		}
		k.identities[name] = id
	}
	return k, nil
}

func newIdentity(name string, acct Account) (*flowtx.Identity, error) {
	addr, err := flowtx.ParseAddress(acct.Address)
	if err != nil {
		return nil, err
	}

	sigName := acct.Key.SignatureAlgorithm
	if sigName == "" {
		sigName = "ECDSA_P256"
	}
	sigAlgo := crypto.StringToSignatureAlgorithm(sigName)
	if sigAlgo == crypto.UnknownSignatureAlgorithm {
		return nil, fmt.Errorf("unsupported signature algorithm %s", sigName)
	}

	hashName := acct.Key.HashAlgorithm
	if hashName == "" {
		hashName = "SHA3_256"
	}
	hashAlgo := crypto.StringToHashAlgorithm(hashName)
	if hashAlgo == crypto.UnknownHashAlgorithm {
		return nil, fmt.Errorf("unsupported hash algorithm %s", hashName)
	}

	sk, err := crypto.DecodePrivateKeyHex(sigAlgo, strings.TrimPrefix(acct.Key.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	signer, err := crypto.NewInMemorySigner(sk, hashAlgo)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	return &flowtx.Identity{
		Name:     name,
		Address:  addr,
		KeyIndex: acct.Key.Index,
		Signer:   signer,
	}, nil
}

// Identity looks an account up by name or by address.
func (k *Keyring) Identity(ref string) (*flowtx.Identity, error) {
	if id, ok := k.identities[ref]; ok {
		return id, nil
	}
	if addr, err := flowtx.ParseAddress(ref); err == nil {
		for _, id := range k.identities {
			if id.Address == addr {
				return id, nil
			}
		}
	}
	if k.keyless[ref] {
		return nil, fmt.Errorf("%w: %s has no private key configured", ErrUnknownAccount, ref)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, ref)
}

func (k *Keyring) Names() []string {
	names := make([]string, 0, len(k.identities))
	for name := range k.identities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
