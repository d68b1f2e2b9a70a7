package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pendergraft/deploykit/internal/assembler"
	"github.com/pendergraft/deploykit/internal/explorer"
	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/preflight"
	"github.com/pendergraft/deploykit/internal/toolkit"
)

// Hardhat's first development account
const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// testApp runs commands in an empty directory with a fixed environment
func testApp(t *testing.T) *app {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("PRIVATE_KEY", testKey)
	t.Setenv("BASESCAN_API_KEY", "basescan-key-1234")
	t.Setenv("LOG_LEVEL", "error")
	return &app{
		provider: toolkit.Default(),
		stdin:    strings.NewReader(""),
		stdinFd:  -1,
	}
}

// emptyToolkit declares no networks, so only baseSepolia and the project file remain
var emptyToolkit = toolkit.ProviderFunc(func(toolkit.Options) *netconfig.Config {
	return netconfig.New()
})

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test", a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile("deploykit.toml", []byte(content), 0644))
}

// newRPCServer answers eth_chainId and eth_getBalance
func newRPCServer(t *testing.T, chainIDHex string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = chainIDHex
		case "eth_getBalance":
			resp["result"] = "0x0"
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigShow_MasksByDefault(t *testing.T) {
	a := testApp(t)

	out, err := run(t, a, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, testKey)
	assert.NotContains(t, out, "basescan-key-1234")

	var cfg netconfig.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, []string{netconfig.MaskSecret(testKey)}, cfg.Networks[assembler.BaseSepolia].Accounts)
	assert.Contains(t, cfg.Networks, "zeta_testnet")
}

func TestConfigShow_Reveal(t *testing.T) {
	a := testApp(t)

	out, err := run(t, a, "config", "show", "--reveal")
	require.NoError(t, err)

	var cfg netconfig.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, []string{testKey}, cfg.Networks[assembler.BaseSepolia].Accounts)
	assert.Equal(t, "basescan-key-1234", cfg.Etherscan.APIKey[assembler.BaseSepolia])
}

func TestConfigShow_Formats(t *testing.T) {
	a := testApp(t)

	out, err := run(t, a, "config", "show", "--format", "yaml")
	require.NoError(t, err)
	var cfg netconfig.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, int64(assembler.BaseSepoliaChainID), cfg.Networks[assembler.BaseSepolia].ChainID)

	out, err = run(t, a, "config", "show", "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "[networks.baseSepolia]")

	_, err = run(t, a, "config", "show", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestConfigInit(t *testing.T) {
	a := testApp(t)

	out, err := run(t, a, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created deploykit.toml")
	assert.FileExists(t, "deploykit.toml")

	_, err = run(t, a, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, a, "config", "init", "--force")
	assert.NoError(t, err)

	// the template is a valid, empty project file
	_, err = run(t, a, "networks", "list")
	assert.NoError(t, err)
}

func TestNetworksList(t *testing.T) {
	a := testApp(t)

	out, err := run(t, a, "networks", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, out, "baseSepolia")
	assert.Contains(t, out, "84532")

	out, err = run(t, a, "networks", "list", "--json")
	require.NoError(t, err)

	var body struct {
		Networks []networkRow `json:"networks"`
		Count    int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, len(body.Networks), body.Count)

	for _, n := range body.Networks {
		assert.Equal(t, n.Name == assembler.BaseSepolia, n.Verifiable, n.Name)
	}
}

func TestNetworksList_ProjectFile(t *testing.T) {
	a := testApp(t)
	writeProject(t, `
[networks.my_l2]
url = "https://rpc.my-l2.example"
chain_id = 12345
use_private_key = true
`)

	out, err := run(t, a, "networks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "my_l2")
	assert.Contains(t, out, "12345")
}

func TestNetworksList_InvalidProjectFile(t *testing.T) {
	a := testApp(t)
	writeProject(t, `
[networks.sepolia_testnet]
url = "https://sepolia.example"
chain_id = 11155111
`)

	_, err := run(t, a, "networks", "list")
	assert.ErrorIs(t, err, netconfig.ErrDuplicateNetwork)
}

func TestNetworksCheck(t *testing.T) {
	a := testApp(t)
	a.provider = emptyToolkit

	good := newRPCServer(t, "0x3039") // 12345
	bad := newRPCServer(t, "0x1")
	writeProject(t, fmt.Sprintf(`
[networks.local_good]
url = %q
chain_id = 12345
use_private_key = true

[networks.local_bad]
url = %q
chain_id = 12345
use_private_key = true
`, good.URL, bad.URL))

	out, err := run(t, a, "networks", "check", "local_good")
	require.NoError(t, err)
	assert.Contains(t, out, "local_good (chain 12345) OK")

	out, err = run(t, a, "networks", "check", "local_bad", "--json")
	assert.ErrorIs(t, err, errChecksFailed)

	var report preflight.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.OK)
	require.Len(t, report.Results, 1)
	assert.Equal(t, testAddress, report.Results[0].Deployer)

	_, err = run(t, a, "networks", "check", "nope")
	assert.ErrorIs(t, err, netconfig.ErrUnknownNetwork)
}

func TestAccounts(t *testing.T) {
	a := testApp(t)

	out, err := run(t, a, "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "Deployer: "+testAddress)
	assert.Contains(t, out, "baseSepolia (chain 84532)")
}

func TestAccounts_Prompt(t *testing.T) {
	a := testApp(t)
	t.Setenv("PRIVATE_KEY", "")
	a.stdin = strings.NewReader(testKey + "\n")

	out, err := run(t, a, "accounts", "--prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "Deployer: "+testAddress)
	assert.NotContains(t, out, "baseSepolia")
}

func TestAccounts_MissingKey(t *testing.T) {
	a := testApp(t)
	t.Setenv("PRIVATE_KEY", "")

	_, err := run(t, a, "accounts")
	assert.ErrorIs(t, err, preflight.ErrMissingCredential)
}

func TestExplorerURL(t *testing.T) {
	a := testApp(t)

	out, err := run(t, a, "explorer", "url", assembler.BaseSepolia, strings.ToLower(testAddress))
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.basescan.org/address/"+testAddress+"\n", out)

	tx := "0x" + strings.Repeat("ab", 32)
	out, err = run(t, a, "explorer", "url", assembler.BaseSepolia, tx)
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.basescan.org/tx/"+tx+"\n", out)

	_, err = run(t, a, "explorer", "url", "zeta_testnet", testAddress)
	assert.ErrorIs(t, err, explorer.ErrNoExplorer)
}

func TestExplorerCheckAndStatus(t *testing.T) {
	a := testApp(t)
	a.provider = emptyToolkit
	t.Setenv("MY_L2_KEY", "l2-explorer-key")

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "l2-explorer-key" {
			fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)
			return
		}
		switch r.URL.Query().Get("action") {
		case "ethprice":
			fmt.Fprint(w, `{"status":"1","message":"OK","result":{"ethusd":"3000"}}`)
		case "checkverifystatus":
			fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Pending in queue"}`)
		}
	}))
	t.Cleanup(api.Close)

	writeProject(t, fmt.Sprintf(`
[networks.my_l2]
url = "https://rpc.my-l2.example"
chain_id = 12345
use_private_key = true

[[custom_chains]]
network = "my_l2"
chain_id = 12345
api_url = "%s/api"
browser_url = "https://explorer.my-l2.example"
api_key_env = "MY_L2_KEY"
`, api.URL))

	out, err := run(t, a, "explorer", "check", "my_l2")
	require.NoError(t, err)
	assert.Contains(t, out, "accepted")
	assert.NotContains(t, out, "l2-explorer-key")

	out, err = run(t, a, "explorer", "status", "my_l2", "guid-1")
	require.NoError(t, err)
	assert.Equal(t, "guid-1: pending (Pending in queue)\n", out)

	t.Setenv("MY_L2_KEY", "wrong")
	_, err = run(t, a, "explorer", "check", "my_l2")
	assert.ErrorIs(t, err, explorer.ErrInvalidAPIKey)
}
