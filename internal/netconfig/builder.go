package netconfig

import (
	"errors"
	"fmt"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"

	"github.com/pendergraft/deploykit/internal/validation"
)

var validate = validator.New()

// Builder merges locally declared networks and explorer settings on top of a
// base configuration. A key collision is an error unless the caller overrides
// explicitly. Explorer entries must refer to a declared network with the same chain ID.
type Builder struct {
	base      *Config
	networks  []pendingNetwork
	explorers []pendingExplorer
}

type pendingNetwork struct {
	name     string
	network  Network
	override bool
}

type pendingExplorer struct {
	apiKey string
	chain  CustomChain
}

// NewBuilder starts a builder from base. base is copied; nil means empty.
func NewBuilder(base *Config) *Builder {
	return &Builder{base: base.Clone()}
}

// AddNetwork declares a new network. Build fails if name is already declared.
func (b *Builder) AddNetwork(name string, n Network) *Builder {
	b.networks = append(b.networks, pendingNetwork{name: name, network: n.Clone()})
	return b
}

// OverrideNetwork replaces an existing network. Build fails if name is not declared,
// so a misspelled key cannot silently create a second entry.
func (b *Builder) OverrideNetwork(name string, n Network) *Builder {
	b.networks = append(b.networks, pendingNetwork{name: name, network: n.Clone(), override: true})
	return b
}

// AddExplorer registers explorer verification for chain.Network with the given API key
func (b *Builder) AddExplorer(apiKey string, chain CustomChain) *Builder {
	b.explorers = append(b.explorers, pendingExplorer{apiKey: apiKey, chain: chain})
	return b
}

// Build validates the pending declarations and returns the merged configuration
func (b *Builder) Build() (*Config, error) {
	out := b.base.Clone()
	overlay := New()
	var errs []error

	for _, p := range b.networks {
		if err := validation.ValidateNetworkName(p.name); err != nil {
			errs = append(errs, fmt.Errorf("%w: network %q: %v", ErrInvalidDescriptor, p.name, err))
			continue
		}
		_, inBase := out.Networks[p.name]
		_, inOverlay := overlay.Networks[p.name]
		exists := inBase || inOverlay

		switch {
		case p.override && !exists:
			errs = append(errs, fmt.Errorf("override %q: %w", p.name, ErrUnknownNetwork))
			continue
		case !p.override && exists:
			errs = append(errs, fmt.Errorf("add %q: %w", p.name, ErrDuplicateNetwork))
			continue
		}
		overlay.Networks[p.name] = p.network
	}

	for _, p := range b.explorers {
		name := p.chain.Network
		n, ok := overlay.Networks[name]
		if !ok {
			n, ok = out.Networks[name]
		}
		if !ok {
			errs = append(errs, fmt.Errorf("explorer for %q: %w", name, ErrUnknownNetwork))
			continue
		}
		if n.ChainID != p.chain.ChainID {
			errs = append(errs, fmt.Errorf("explorer for %q: %w: network has %d, explorer has %d",
				name, ErrChainIDMismatch, n.ChainID, p.chain.ChainID))
			continue
		}
		_, declared := out.CustomChain(name)
		_, pending := overlay.CustomChain(name)
		if declared || pending {
			errs = append(errs, fmt.Errorf("explorer for %q: %w", name, ErrDuplicateExplorer))
			continue
		}
		overlay.Etherscan.APIKey[name] = p.apiKey
		overlay.Etherscan.CustomChains = append(overlay.Etherscan.CustomChains, p.chain)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := mergo.Merge(out, overlay, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, fmt.Errorf("merging configuration: %w", err)
	}

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks descriptors and cross-references of a configuration.
// Credential values are not inspected; a missing key surfaces when a network is used.
func Validate(c *Config) error {
	var errs []error

	for _, name := range c.NetworkNames() {
		n := c.Networks[name]
		if err := validation.ValidateNetworkName(name); err != nil {
			errs = append(errs, fmt.Errorf("%w: network %q: %v", ErrInvalidDescriptor, name, err))
		}
		if err := validate.Struct(n); err != nil {
			errs = append(errs, fmt.Errorf("%w: network %q: %v", ErrInvalidDescriptor, name, err))
		}
		if err := validation.ValidateChainID(n.ChainID); err != nil {
			errs = append(errs, fmt.Errorf("%w: network %q: %v", ErrInvalidDescriptor, name, err))
		}
	}

	seen := make(map[string]bool, len(c.Etherscan.CustomChains))
	for i, cc := range c.Etherscan.CustomChains {
		if err := validate.Struct(cc); err != nil {
			errs = append(errs, fmt.Errorf("%w: customChains[%d]: %v", ErrInvalidDescriptor, i, err))
			continue
		}
		if err := validation.ValidateChainID(cc.ChainID); err != nil {
			errs = append(errs, fmt.Errorf("%w: customChains[%d]: %v", ErrInvalidDescriptor, i, err))
			continue
		}
		if seen[cc.Network] {
			errs = append(errs, fmt.Errorf("customChains[%d] %q: %w", i, cc.Network, ErrDuplicateExplorer))
		}
		seen[cc.Network] = true

		n, ok := c.Networks[cc.Network]
		if !ok {
			errs = append(errs, fmt.Errorf("customChains[%d] %q: %w", i, cc.Network, ErrUnknownNetwork))
			continue
		}
		if n.ChainID != cc.ChainID {
			errs = append(errs, fmt.Errorf("customChains[%d] %q: %w", i, cc.Network, ErrChainIDMismatch))
		}
		if _, ok := c.Etherscan.APIKey[cc.Network]; !ok {
			errs = append(errs, fmt.Errorf("%w: customChains[%d] %q has no apiKey entry", ErrInvalidDescriptor, i, cc.Network))
		}
	}

	for i, comp := range c.Solidity.Compilers {
		if err := validation.ValidateCompilerVersion(comp.Version); err != nil {
			errs = append(errs, fmt.Errorf("%w: solidity.compilers[%d]: %v", ErrInvalidDescriptor, i, err))
		}
	}

	return errors.Join(errs...)
}
