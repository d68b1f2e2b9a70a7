// Package netconfig holds the deployment configuration model: networks,
// signing accounts, explorer verification settings and compiler versions.
package netconfig

import (
	"maps"
	"slices"
)

// Config is the assembled deployment configuration.
// Values returned by Builder.Build are owned by the caller and treated as read-only.
type Config struct {
	Networks  map[string]Network `json:"networks" yaml:"networks" toml:"networks"`
	Etherscan Etherscan          `json:"etherscan" yaml:"etherscan" toml:"etherscan"`
	Solidity  Solidity           `json:"solidity,omitempty" yaml:"solidity,omitempty" toml:"solidity,omitempty"`
}

// Network describes how to reach a chain and who signs for it
type Network struct {
	URL      string   `json:"url" yaml:"url" toml:"url" validate:"required,url"`
	ChainID  int64    `json:"chainId" yaml:"chainId" toml:"chainId"`
	Accounts []string `json:"accounts" yaml:"accounts" toml:"accounts"`
}

// Etherscan holds explorer verification settings
type Etherscan struct {
	APIKey       map[string]string `json:"apiKey" yaml:"apiKey" toml:"apiKey"`
	CustomChains []CustomChain     `json:"customChains" yaml:"customChains" toml:"customChains"`
}

// CustomChain registers a network that the verification service does not know natively
type CustomChain struct {
	Network string       `json:"network" yaml:"network" toml:"network" validate:"required"`
	ChainID int64        `json:"chainId" yaml:"chainId" toml:"chainId"`
	URLs    ExplorerURLs `json:"urls" yaml:"urls" toml:"urls"`
}

// ExplorerURLs are the API and browser endpoints of an explorer
type ExplorerURLs struct {
	APIURL     string `json:"apiURL" yaml:"apiURL" toml:"apiURL" validate:"required,url"`
	BrowserURL string `json:"browserURL" yaml:"browserURL" toml:"browserURL" validate:"required,url"`
}

// Solidity lists the compilers a project builds with
type Solidity struct {
	Compilers []Compiler `json:"compilers,omitempty" yaml:"compilers,omitempty" toml:"compilers,omitempty"`
}

// Compiler is a single solc release
type Compiler struct {
	Version string `json:"version" yaml:"version" toml:"version"`
}

// New returns an empty configuration with initialized maps
func New() *Config {
	return &Config{
		Networks: make(map[string]Network),
		Etherscan: Etherscan{
			APIKey: make(map[string]string),
		},
	}
}

// Clone returns a deep copy of c. A nil receiver yields an empty config.
func (c *Config) Clone() *Config {
	out := New()
	if c == nil {
		return out
	}
	for name, n := range c.Networks {
		out.Networks[name] = n.Clone()
	}
	maps.Copy(out.Etherscan.APIKey, c.Etherscan.APIKey)
	out.Etherscan.CustomChains = slices.Clone(c.Etherscan.CustomChains)
	out.Solidity.Compilers = slices.Clone(c.Solidity.Compilers)
	return out
}

// Clone returns a copy of n that does not share its accounts slice
func (n Network) Clone() Network {
	n.Accounts = slices.Clone(n.Accounts)
	return n
}

// NetworkNames returns the declared network names in sorted order
func (c *Config) NetworkNames() []string {
	return slices.Sorted(maps.Keys(c.Networks))
}

// Network looks up a network by name
func (c *Config) Network(name string) (Network, bool) {
	n, ok := c.Networks[name]
	if !ok {
		return Network{}, false
	}
	return n.Clone(), true
}

// CustomChain returns the explorer registration for a network, if any
func (c *Config) CustomChain(network string) (CustomChain, bool) {
	for _, cc := range c.Etherscan.CustomChains {
		if cc.Network == network {
			return cc, true
		}
	}
	return CustomChain{}, false
}

// Verifiable reports whether contracts deployed to network can be verified
// on an explorer declared in this configuration.
func (c *Config) Verifiable(network string) bool {
	if _, ok := c.CustomChain(network); !ok {
		return false
	}
	_, ok := c.Etherscan.APIKey[network]
	return ok
}
