// Package explorer resolves and talks to the Etherscan-compatible explorer
// declared for a network.
package explorer

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/validation"
)

var (
	ErrNoExplorer     = errors.New("no explorer declared for network")
	ErrInvalidAPIKey  = errors.New("explorer API key rejected")
	ErrInvalidAddress = errors.New("invalid address")
)

// Endpoint is the explorer registration of one network, paired with its API key
type Endpoint struct {
	Network    string `json:"network"`
	ChainID    int64  `json:"chainId"`
	APIURL     string `json:"apiURL"`
	BrowserURL string `json:"browserURL"`
	APIKey     string `json:"apiKey"`
}

// Resolve finds the explorer declared for network
func Resolve(cfg *netconfig.Config, network string) (Endpoint, error) {
	cc, ok := cfg.CustomChain(network)
	if !ok {
		return Endpoint{}, fmt.Errorf("%q: %w", network, ErrNoExplorer)
	}
	return Endpoint{
		Network:    cc.Network,
		ChainID:    cc.ChainID,
		APIURL:     cc.URLs.APIURL,
		BrowserURL: cc.URLs.BrowserURL,
		APIKey:     cfg.Etherscan.APIKey[network],
	}, nil
}

// AddressURL returns the browser page of a contract or account
func (e Endpoint) AddressURL(address string) (string, error) {
	if err := validation.ValidateAddress(address); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return e.browserPath("address", common.HexToAddress(address).Hex())
}

// TxURL returns the browser page of a transaction
func (e Endpoint) TxURL(hash string) (string, error) {
	b, err := hexutil.Decode(hash)
	if err != nil || len(b) != common.HashLength {
		return "", fmt.Errorf("invalid transaction hash %q", hash)
	}
	return e.browserPath("tx", hexutil.Encode(b))
}

func (e Endpoint) browserPath(kind, id string) (string, error) {
	base, err := url.Parse(e.BrowserURL)
	if err != nil {
		return "", fmt.Errorf("parsing browser URL: %w", err)
	}
	return base.JoinPath(kind, id).String(), nil
}

// Masked returns a copy with the API key masked
func (e Endpoint) Masked() Endpoint {
	e.APIKey = netconfig.MaskSecret(e.APIKey)
	return e
}
