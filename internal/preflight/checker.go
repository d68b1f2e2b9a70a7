// Package preflight checks that declared networks are usable before a
// deployment: the credential decodes, the RPC answers and serves the
// declared chain.
package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/observability/metrics"
)

// DefaultTimeout is the default timeout for RPC calls.
const DefaultTimeout = 10 * time.Second

// CheckName identifies a specific pre-flight check.
type CheckName string

const (
	// CheckCredential verifies the first account is a usable private key.
	CheckCredential CheckName = "credential"
	// CheckRPCReachable verifies the RPC endpoint is reachable.
	CheckRPCReachable CheckName = "rpc_reachable"
	// CheckChainIDMatch verifies the remote chain ID matches the declared one.
	CheckChainIDMatch CheckName = "chain_id_match"
	// CheckDeployerBalance reports the deployer balance.
	CheckDeployerBalance CheckName = "deployer_balance"
)

// CheckResult represents the result of a single pre-flight check.
type CheckResult struct {
	Name    CheckName      `json:"name"`
	Passed  bool           `json:"passed"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// Result holds the checks of one network.
type Result struct {
	Network  string        `json:"network"`
	ChainID  int64         `json:"chainId"`
	URL      string        `json:"url"`
	Deployer string        `json:"deployer,omitempty"`
	OK       bool          `json:"ok"`
	Checks   []CheckResult `json:"checks"`
}

// Report holds the results of one preflight run.
type Report struct {
	ID      string   `json:"id"`
	OK      bool     `json:"ok"`
	Results []Result `json:"results"`
}

// chainReader is the subset of ethclient.Client the checks use
type chainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// Checker performs pre-flight validation checks.
type Checker struct {
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
	dial    func(ctx context.Context, url string) (chainReader, error)
}

// NewChecker creates a new pre-flight checker.
func NewChecker(logger *slog.Logger) *Checker {
	return &Checker{
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  logger,
		dial: func(ctx context.Context, url string) (chainReader, error) {
			client, err := ethclient.DialContext(ctx, url)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// WithTimeout sets a custom timeout for RPC calls.
func (c *Checker) WithTimeout(timeout time.Duration) *Checker {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// WithRateLimit caps the number of networks dialed per second. Zero or less disables the cap.
func (c *Checker) WithRateLimit(perSecond float64) *Checker {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return c
}

// CheckAll checks the named networks, or every declared network when names
// is empty, in sorted order.
func (c *Checker) CheckAll(ctx context.Context, cfg *netconfig.Config, names ...string) (*Report, error) {
	if len(names) == 0 {
		names = cfg.NetworkNames()
	}

	report := &Report{
		ID:      uuid.NewString(),
		OK:      true,
		Results: make([]Result, 0, len(names)),
	}

	for _, name := range names {
		n, ok := cfg.Network(name)
		if !ok {
			return nil, fmt.Errorf("network %q: %w", name, netconfig.ErrUnknownNetwork)
		}
		result := c.Check(ctx, name, n)
		if !result.OK {
			report.OK = false
		}
		report.Results = append(report.Results, result)
	}

	c.logger.Info("preflight finished", "run_id", report.ID, "networks", len(names), "ok", report.OK)
	return report, nil
}

// Check runs all checks against a single network.
func (c *Checker) Check(ctx context.Context, name string, n netconfig.Network) Result {
	result := Result{
		Network: name,
		ChainID: n.ChainID,
		URL:     n.URL,
		OK:      true,
		Checks:  make([]CheckResult, 0, 4),
	}

	record := func(cr CheckResult) {
		result.Checks = append(result.Checks, cr)
		if !cr.Passed {
			result.OK = false
		}
		metrics.RecordPreflightCheck(name, string(cr.Name), cr.Passed)
		c.logger.Debug("preflight check", "network", name, "check", cr.Name, "passed", cr.Passed, "message", cr.Message)
	}

	// Check 1: Credential
	deployer, credResult := checkCredential(n.Accounts)
	record(credResult)
	if credResult.Passed {
		result.Deployer = deployer.Hex()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		record(CheckResult{Name: CheckRPCReachable, Message: fmt.Sprintf("Cancelled: %v", err), Err: err})
		return result
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Check 2: RPC Reachable
	client, remoteChainID, reachableResult := c.checkRPCReachable(rpcCtx, n.URL)
	record(reachableResult)
	if !reachableResult.Passed {
		return result // Can't continue without connection
	}
	defer client.Close()

	// Check 3: Chain ID Match
	record(checkChainIDMatch(remoteChainID, n.ChainID))

	// Check 4: Deployer Balance
	if credResult.Passed {
		record(checkDeployerBalance(rpcCtx, client, deployer))
	}

	return result
}

func checkCredential(accounts []string) (common.Address, CheckResult) {
	result := CheckResult{
		Name: CheckCredential,
	}

	addr, err := Deployer(accounts)
	if err != nil {
		result.Passed = false
		result.Message = err.Error()
		result.Err = err
		return common.Address{}, result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Deployer %s", addr.Hex())
	result.Details = map[string]any{
		"address": addr.Hex(),
	}
	return addr, result
}

// checkRPCReachable dials the endpoint and fetches its chain ID.
func (c *Checker) checkRPCReachable(ctx context.Context, rpcURL string) (chainReader, *big.Int, CheckResult) {
	result := CheckResult{
		Name: CheckRPCReachable,
	}

	client, err := c.dial(ctx, rpcURL)
	if err != nil {
		result.Passed = false
		result.Message = fmt.Sprintf("Failed to connect to RPC: %v", err)
		result.Err = err
		return nil, nil, result
	}

	// Verify connection works by making a simple call
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		result.Passed = false
		result.Message = fmt.Sprintf("RPC connection failed: %v", err)
		result.Err = err
		return nil, nil, result
	}

	result.Passed = true
	result.Message = "Connected to RPC successfully"
	return client, chainID, result
}

// checkChainIDMatch verifies the remote chain ID matches the declared value.
func checkChainIDMatch(actual *big.Int, expected int64) CheckResult {
	result := CheckResult{
		Name: CheckChainIDMatch,
	}

	if actual.Cmp(big.NewInt(expected)) != 0 {
		result.Passed = false
		result.Message = fmt.Sprintf("Chain ID mismatch: expected %d, got %s", expected, actual.String())
		result.Details = map[string]any{
			"expected": expected,
			"actual":   actual.String(),
		}
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Chain ID %d confirmed", expected)
	result.Details = map[string]any{
		"chain_id": expected,
	}
	return result
}

// checkDeployerBalance reports the deployer balance. An empty balance still
// passes; funding requirements depend on what is deployed.
func checkDeployerBalance(ctx context.Context, client chainReader, deployer common.Address) CheckResult {
	result := CheckResult{
		Name: CheckDeployerBalance,
	}

	balance, err := client.BalanceAt(ctx, deployer, nil)
	if err != nil {
		result.Passed = false
		result.Message = fmt.Sprintf("Failed to get deployer balance: %v", err)
		result.Err = err
		return result
	}

	haveETH := weiToETHString(balance)
	result.Passed = true
	result.Message = fmt.Sprintf("Deployer balance: %s ETH", haveETH)
	result.Details = map[string]any{
		"have_wei": balance.String(),
		"have_eth": haveETH,
	}
	return result
}

// weiToETHString converts wei to a human-readable ETH string.
func weiToETHString(wei *big.Int) string {
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18))
	return eth.Text('f', 6)
}
