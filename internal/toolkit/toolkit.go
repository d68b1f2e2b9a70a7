// Package toolkit supplies the base deployment configuration that projects
// extend with their own networks.
package toolkit

import (
	"slices"

	"github.com/pendergraft/deploykit/internal/netconfig"
)

// Options parameterizes the base configuration
type Options struct {
	// Accounts signs for every network the toolkit declares
	Accounts []string
}

// Provider produces a base configuration
type Provider interface {
	BaseConfig(opts Options) *netconfig.Config
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(opts Options) *netconfig.Config

// BaseConfig calls f(opts)
func (f ProviderFunc) BaseConfig(opts Options) *netconfig.Config {
	return f(opts)
}

type endpoint struct {
	url     string
	chainID int64
}

// knownNetworks are the networks of the ZetaChain ecosystem toolkit
var knownNetworks = map[string]endpoint{
	"zeta_testnet":      {"https://zetachain-athens-evm.blockpi.network/v1/rpc/public", 7001},
	"zeta_mainnet":      {"https://zetachain-evm.blockpi.network/v1/rpc/public", 7000},
	"sepolia_testnet":   {"https://ethereum-sepolia-rpc.publicnode.com", 11155111},
	"bsc_testnet":       {"https://data-seed-prebsc-1-s1.bnbchain.org:8545", 97},
	"amoy_testnet":      {"https://rpc-amoy.polygon.technology", 80002},
	"base_sepolia":      {"https://sepolia.base.org", 84532},
	"arbitrum_sepolia":  {"https://sepolia-rollup.arbitrum.io/rpc", 421614},
	"avalanche_testnet": {"https://api.avax-test.network/ext/bc/C/rpc", 43113},
	"localhost":         {"http://127.0.0.1:8545", 31337},
}

var compilerVersions = []string{"0.6.6", "0.8.7", "0.8.26"}

type zetaToolkit struct{}

// Default returns the ZetaChain toolkit provider
func Default() Provider {
	return zetaToolkit{}
}

// BaseConfig returns every known network signing with opts.Accounts,
// plus the toolkit's compiler list. Each network gets its own copy of the accounts.
func (zetaToolkit) BaseConfig(opts Options) *netconfig.Config {
	cfg := netconfig.New()
	for name, ep := range knownNetworks {
		cfg.Networks[name] = netconfig.Network{
			URL:      ep.url,
			ChainID:  ep.chainID,
			Accounts: slices.Clone(opts.Accounts),
		}
	}
	for _, v := range compilerVersions {
		cfg.Solidity.Compilers = append(cfg.Solidity.Compilers, netconfig.Compiler{Version: v})
	}
	return cfg
}
