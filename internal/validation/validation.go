// Package validation provides input validation for deploykit.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/mod/semver"
)

// Network names: letter first, then letters, digits, '_' or '-', up to 64 chars.
// Both "baseSepolia" and "zeta_testnet" styles are in use.
var networkNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ValidateNetworkName validates a network key
func ValidateNetworkName(name string) error {
	if name == "" {
		return errors.New("network name cannot be empty")
	}
	if len(name) > 64 {
		return errors.New("network name too long (max 64 chars)")
	}
	if !networkNameRegex.MatchString(name) {
		return errors.New("invalid network name: must start with a letter and contain only letters, digits, '_' or '-'")
	}
	return nil
}

// ValidateCompilerVersion validates a solidity compiler version such as "0.8.26"
func ValidateCompilerVersion(v string) error {
	normalized := NormalizeVersion(v)
	if normalized == "" {
		return errors.New("compiler version cannot be empty")
	}

	if !semver.IsValid("v" + normalized) {
		return errors.New("invalid compiler version: must be in format X.Y.Z")
	}

	// semver accepts "0.8" as shorthand; solc releases are always full triples
	mainPart := strings.SplitN(normalized, "-", 2)[0]
	mainPart = strings.SplitN(mainPart, "+", 2)[0]
	if strings.Count(mainPart, ".") != 2 {
		return errors.New("invalid compiler version: must be in format X.Y.Z (major.minor.patch)")
	}

	return nil
}

// NormalizeVersion normalizes a version string (strips leading 'v')
func NormalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// ValidateAddress validates an Ethereum address
func ValidateAddress(addr string) error {
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	if !common.IsHexAddress(addr) {
		return errors.New("invalid address: must be 0x followed by 40 hex characters")
	}
	return nil
}

// ValidateChainID validates a chain ID
func ValidateChainID(chainID int64) error {
	if chainID <= 0 {
		return errors.New("chain ID must be positive")
	}
	return nil
}
