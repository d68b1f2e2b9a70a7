// Package assembler builds the deployment configuration from the environment,
// the toolkit base configuration and the project file.
package assembler

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/pendergraft/deploykit/internal/config"
	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/observability/metrics"
	"github.com/pendergraft/deploykit/internal/project"
	"github.com/pendergraft/deploykit/internal/toolkit"
)

// Base Sepolia is declared by every project on top of the toolkit networks.
// The name is the key in networks, etherscan.apiKey and customChains alike.
const (
	BaseSepolia           = "baseSepolia"
	BaseSepoliaURL        = "https://sepolia.base.org"
	BaseSepoliaChainID    = 84532
	BaseSepoliaAPIURL     = "https://api-sepolia.basescan.org/api"
	BaseSepoliaBrowserURL = "https://sepolia.basescan.org"
)

// BaseSepoliaNetwork returns the Base Sepolia descriptor signing with privateKey
func BaseSepoliaNetwork(privateKey string) netconfig.Network {
	return netconfig.Network{
		URL:      BaseSepoliaURL,
		ChainID:  BaseSepoliaChainID,
		Accounts: []string{privateKey},
	}
}

// BaseSepoliaExplorer returns the Basescan registration for Base Sepolia
func BaseSepoliaExplorer() netconfig.CustomChain {
	return netconfig.CustomChain{
		Network: BaseSepolia,
		ChainID: BaseSepoliaChainID,
		URLs: netconfig.ExplorerURLs{
			APIURL:     BaseSepoliaAPIURL,
			BrowserURL: BaseSepoliaBrowserURL,
		},
	}
}

type options struct {
	project   *project.Config
	lookupEnv func(string) string
	logger    *slog.Logger
}

// Option configures Assemble
type Option func(*options)

// WithProject merges the networks and explorers of a project file
func WithProject(p *project.Config) Option {
	return func(o *options) {
		o.project = p
	}
}

// WithEnvLookup replaces os.Getenv for resolving project explorer API keys
func WithEnvLookup(lookup func(string) string) Option {
	return func(o *options) {
		o.lookupEnv = lookup
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Assemble produces the deployment configuration. The toolkit is asked once
// for its base configuration, signing with the private key; Base Sepolia and
// its Basescan registration are added on top.
//
// An empty private key is carried through as a single empty account.
// It is not an assembly error; using the network later fails instead.
func Assemble(creds config.Credentials, base toolkit.Provider, opts ...Option) (*netconfig.Config, error) {
	o := options{
		lookupEnv: os.Getenv,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	accounts := []string{creds.PrivateKey}

	b := netconfig.NewBuilder(base.BaseConfig(toolkit.Options{Accounts: accounts})).
		AddNetwork(BaseSepolia, BaseSepoliaNetwork(creds.PrivateKey)).
		AddExplorer(creds.BasescanAPIKey, BaseSepoliaExplorer())

	if o.project != nil {
		applyProject(b, o.project, accounts, o.lookupEnv)
	}

	cfg, err := b.Build()
	metrics.RecordAssemble(err == nil)
	if err != nil {
		return nil, fmt.Errorf("assembling configuration: %w", err)
	}

	if creds.PrivateKey == "" {
		o.logger.Warn("PRIVATE_KEY is not set; network operations will fail")
	}
	o.logger.Debug("configuration assembled",
		"networks", len(cfg.Networks),
		"custom_chains", len(cfg.Etherscan.CustomChains),
	)

	return cfg, nil
}

func applyProject(b *netconfig.Builder, p *project.Config, accounts []string, lookupEnv func(string) string) {
	for _, name := range slices.Sorted(maps.Keys(p.Networks)) {
		pn := p.Networks[name]
		n := netconfig.Network{
			URL:      pn.URL,
			ChainID:  pn.ChainID,
			Accounts: pn.Accounts,
		}
		if pn.UsePrivateKey {
			n.Accounts = accounts
		}
		if pn.Override {
			b.OverrideNetwork(name, n)
		} else {
			b.AddNetwork(name, n)
		}
	}

	for _, cc := range p.CustomChains {
		apiKey := ""
		if cc.APIKeyEnv != "" {
			apiKey = lookupEnv(cc.APIKeyEnv)
		}
		b.AddExplorer(apiKey, netconfig.CustomChain{
			Network: cc.Network,
			ChainID: cc.ChainID,
			URLs: netconfig.ExplorerURLs{
				APIURL:     cc.APIURL,
				BrowserURL: cc.BrowserURL,
			},
		})
	}
}
