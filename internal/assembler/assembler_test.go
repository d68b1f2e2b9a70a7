package assembler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/deploykit/internal/config"
	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/project"
	"github.com/pendergraft/deploykit/internal/toolkit"
)

// countingProvider wraps the default toolkit and records its invocations
type countingProvider struct {
	calls []toolkit.Options
}

func (p *countingProvider) BaseConfig(opts toolkit.Options) *netconfig.Config {
	p.calls = append(p.calls, opts)
	return toolkit.Default().BaseConfig(opts)
}

func TestAssemble_Scenario(t *testing.T) {
	cfg, err := Assemble(config.Credentials{PrivateKey: "0xabc", BasescanAPIKey: "key1"}, toolkit.Default())
	require.NoError(t, err)

	assert.Equal(t, netconfig.Network{
		URL:      "https://sepolia.base.org",
		ChainID:  84532,
		Accounts: []string{"0xabc"},
	}, cfg.Networks[BaseSepolia])
	assert.Equal(t, "key1", cfg.Etherscan.APIKey[BaseSepolia])

	require.Len(t, cfg.Etherscan.CustomChains, 1)
	chain := cfg.Etherscan.CustomChains[0]
	assert.Equal(t, int64(84532), chain.ChainID)
	assert.Equal(t, "https://api-sepolia.basescan.org/api", chain.URLs.APIURL)
	assert.Equal(t, "https://sepolia.basescan.org", chain.URLs.BrowserURL)
}

func TestAssemble_NetworkNameConsistency(t *testing.T) {
	cfg, err := Assemble(config.Credentials{PrivateKey: "0xabc", BasescanAPIKey: "key1"}, toolkit.Default())
	require.NoError(t, err)

	require.Len(t, cfg.Etherscan.CustomChains, 1)
	name := cfg.Etherscan.CustomChains[0].Network

	_, declared := cfg.Networks[name]
	assert.True(t, declared, "custom chain %q must be a declared network", name)
	_, hasKey := cfg.Etherscan.APIKey[name]
	assert.True(t, hasKey, "custom chain %q must have an apiKey entry", name)
	assert.Equal(t, cfg.Networks[name].ChainID, cfg.Etherscan.CustomChains[0].ChainID)
	assert.True(t, cfg.Verifiable(name))
}

func TestAssemble_AccountsFollowPrivateKey(t *testing.T) {
	keys := []string{
		"0xabc",
		"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		"not even hex",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			cfg, err := Assemble(config.Credentials{PrivateKey: key}, toolkit.Default())
			require.NoError(t, err)

			assert.Equal(t, []string{key}, cfg.Networks[BaseSepolia].Accounts)
			assert.Equal(t, int64(BaseSepoliaChainID), cfg.Networks[BaseSepolia].ChainID)
			for name, n := range cfg.Networks {
				assert.Equal(t, []string{key}, n.Accounts, name)
			}
		})
	}
}

func TestAssemble_MissingCredentials(t *testing.T) {
	var logBuf bytes.Buffer
	logger := config.NewLogger(config.LoggingConfig{Level: "warn"}, &logBuf)

	cfg, err := Assemble(config.Credentials{}, toolkit.Default(), WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, []string{""}, cfg.Networks[BaseSepolia].Accounts)
	assert.Equal(t, "", cfg.Etherscan.APIKey[BaseSepolia])
	assert.Contains(t, logBuf.String(), "PRIVATE_KEY is not set")
}

func TestAssemble_ToolkitCalledOnce(t *testing.T) {
	p := &countingProvider{}

	cfg, err := Assemble(config.Credentials{PrivateKey: "0xabc"}, p)
	require.NoError(t, err)

	require.Len(t, p.calls, 1)
	assert.Equal(t, []string{"0xabc"}, p.calls[0].Accounts)

	// toolkit networks survive alongside baseSepolia
	assert.Contains(t, cfg.Networks, "zeta_testnet")
	assert.Contains(t, cfg.Networks, "base_sepolia")
	assert.Contains(t, cfg.Networks, BaseSepolia)
	assert.NotEmpty(t, cfg.Solidity.Compilers)
}

func TestAssemble_ToolkitCollision(t *testing.T) {
	p := toolkit.ProviderFunc(func(opts toolkit.Options) *netconfig.Config {
		cfg := netconfig.New()
		cfg.Networks[BaseSepolia] = netconfig.Network{URL: "https://other.example", ChainID: 1, Accounts: opts.Accounts}
		return cfg
	})

	_, err := Assemble(config.Credentials{PrivateKey: "0xabc"}, p)
	assert.ErrorIs(t, err, netconfig.ErrDuplicateNetwork)
}

func TestAssemble_WithProject(t *testing.T) {
	p := &project.Config{
		Networks: map[string]project.Network{
			"my_l2": {
				URL:           "https://rpc.my-l2.example",
				ChainID:       12345,
				UsePrivateKey: true,
			},
			"sepolia_testnet": {
				URL:      "https://sepolia.example",
				ChainID:  11155111,
				Accounts: []string{"0xother"},
				Override: true,
			},
		},
		CustomChains: []project.CustomChain{{
			Network:    "my_l2",
			ChainID:    12345,
			APIURL:     "https://api.explorer.my-l2.example/api",
			BrowserURL: "https://explorer.my-l2.example",
			APIKeyEnv:  "MY_L2_KEY",
		}},
	}
	env := map[string]string{"MY_L2_KEY": "l2key"}

	cfg, err := Assemble(
		config.Credentials{PrivateKey: "0xabc", BasescanAPIKey: "key1"},
		toolkit.Default(),
		WithProject(p),
		WithEnvLookup(func(k string) string { return env[k] }),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"0xabc"}, cfg.Networks["my_l2"].Accounts)
	assert.Equal(t, "https://sepolia.example", cfg.Networks["sepolia_testnet"].URL)
	assert.Equal(t, []string{"0xother"}, cfg.Networks["sepolia_testnet"].Accounts)
	assert.Equal(t, "l2key", cfg.Etherscan.APIKey["my_l2"])
	assert.Equal(t, "key1", cfg.Etherscan.APIKey[BaseSepolia])

	require.Len(t, cfg.Etherscan.CustomChains, 2)
	assert.Equal(t, BaseSepolia, cfg.Etherscan.CustomChains[0].Network)
	assert.Equal(t, "my_l2", cfg.Etherscan.CustomChains[1].Network)
}

func TestAssemble_ProjectTypoRejected(t *testing.T) {
	p := &project.Config{
		Networks: map[string]project.Network{
			"sepolia_testnt": {URL: "https://sepolia.example", ChainID: 11155111, Override: true},
		},
	}

	_, err := Assemble(config.Credentials{PrivateKey: "0xabc"}, toolkit.Default(), WithProject(p))
	assert.ErrorIs(t, err, netconfig.ErrUnknownNetwork)
}

func TestAssemble_ProjectExplorerForBaseSepoliaRejected(t *testing.T) {
	explorer := BaseSepoliaExplorer()
	p := &project.Config{
		CustomChains: []project.CustomChain{{
			Network:    explorer.Network,
			ChainID:    explorer.ChainID,
			APIURL:     explorer.URLs.APIURL,
			BrowserURL: explorer.URLs.BrowserURL,
		}},
	}

	_, err := Assemble(config.Credentials{}, toolkit.Default(), WithProject(p))
	assert.ErrorIs(t, err, netconfig.ErrDuplicateExplorer)
}
