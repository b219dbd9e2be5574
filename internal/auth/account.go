// Package auth implements identity: the login exchange against the authority
// service, the remote custodial signer, and construction of the signed,
// compressed, base58-encoded fabric access token used as the bearer
// credential for every subsequent call.
package auth

import (
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/mediafabric/fabric-client/internal/errs"
)

// ProviderType identifies how an account was signed in.
type ProviderType string

const (
	ProviderAuth0 ProviderType = "auth0"
	ProviderOry   ProviderType = "ory"
	ProviderSSO   ProviderType = "sso"
	ProviderDebug ProviderType = "debug"

	// ProviderExternal marks accounts whose token and address were supplied
	// directly by the caller; the login exchange is skipped for these.
	ProviderExternal ProviderType = "external"
)

// accountIDPrefix is the fixed prefix of the content-addressed-style account
// ID encoding.
const accountIDPrefix = "iusr"

// Account is a signed-in identity. Exactly one account is current at a time;
// the session keeps a secondary map per (provider, property) for switching.
type Account struct {
	Provider    ProviderType
	Address     string
	AccountID   string
	FabricToken string
	Login       *LoginResponse
	PropertyID  string
	Email       string
}

// LoginResponse is the result of the login exchange: the account's blockchain
// address and the cluster-scoped token used to reach the custodial signer.
type LoginResponse struct {
	Address      string `json:"addr"`
	ClusterToken string `json:"token"`
}

// AccountIDFromAddress derives the account ID from a hex blockchain address:
// the address bytes base58-encoded under the fixed prefix.
func AccountIDFromAddress(address string) (string, error) {
	raw, err := AddressBytes(address)
	if err != nil {
		return "", err
	}
	return accountIDPrefix + base58.Encode(raw), nil
}

// AddressBytes decodes a 0x-prefixed hex address.
func AddressBytes(address string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(address), "0x")
	if trimmed == "" {
		return nil, errs.NewBadInput("address", "empty")
	}
	raw, err := hex.DecodeString(strings.ToLower(trimmed))
	if err != nil {
		return nil, errs.NewBadInput("address", "not valid hex: "+err.Error())
	}
	return raw, nil
}
