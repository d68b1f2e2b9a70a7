// Package project loads the optional deploykit.toml project file that
// declares networks and explorers beyond the built-in ones.
package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ConfigFiles is the search order for project config files
var ConfigFiles = []string{"deploykit.toml", "dk.toml"}

// Config is the project-level TOML configuration
type Config struct {
	Networks     map[string]Network `toml:"networks,omitempty"`
	CustomChains []CustomChain      `toml:"custom_chains,omitempty"`
}

// Network declares an additional network, or overrides a toolkit one
type Network struct {
	URL      string   `toml:"url"`
	ChainID  int64    `toml:"chain_id"`
	Accounts []string `toml:"accounts,omitempty"`
	// UsePrivateKey signs with PRIVATE_KEY instead of Accounts
	UsePrivateKey bool `toml:"use_private_key,omitempty"`
	// Override replaces a network of the same name rather than adding one
	Override bool `toml:"override,omitempty"`
}

// CustomChain declares explorer verification for a network
type CustomChain struct {
	Network    string `toml:"network"`
	ChainID    int64  `toml:"chain_id"`
	APIURL     string `toml:"api_url"`
	BrowserURL string `toml:"browser_url"`
	// APIKeyEnv names the environment variable holding the explorer API key
	APIKeyEnv string `toml:"api_key_env"`
}

// Load loads the project config from path, or from the first file in
// ConfigFiles when path is empty. It returns the path it loaded from.
// os.ErrNotExist is returned when no file is found.
func Load(path string) (*Config, string, error) {
	if path != "" {
		cfg, err := LoadFile(path)
		return cfg, path, err
	}

	for _, name := range ConfigFiles {
		if _, err := os.Stat(name); err == nil {
			cfg, err := LoadFile(name)
			return cfg, name, err
		}
	}
	return nil, "", os.ErrNotExist
}

// LoadOptional is Load without the error for a missing file
func LoadOptional(path string) (*Config, string, error) {
	cfg, loadedFrom, err := Load(path)
	if path == "" && errors.Is(err, os.ErrNotExist) {
		return nil, "", nil
	}
	return cfg, loadedFrom, err
}

// LoadFile decodes a project config file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing TOML: unknown key %q", undecoded[0].String())
	}

	return &cfg, nil
}

// Template is the content written by "deploykit config init"
const Template = `# deploykit project configuration
#
# The toolkit networks and baseSepolia are always declared.
# Add networks or explorers below.

# [networks.my_l2]
# url = "https://rpc.my-l2.example"
# chain_id = 12345
# use_private_key = true

# Replace a toolkit network, e.g. to point at a private RPC
# [networks.sepolia_testnet]
# url = "https://sepolia.infura.io/v3/<project>"
# chain_id = 11155111
# use_private_key = true
# override = true

# [[custom_chains]]
# network = "my_l2"
# chain_id = 12345
# api_url = "https://api.explorer.my-l2.example/api"
# browser_url = "https://explorer.my-l2.example"
# api_key_env = "MY_L2_EXPLORER_API_KEY"
`
