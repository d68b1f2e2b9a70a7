package preflight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrMissingCredential = errors.New("signing credential is not set")
	ErrInvalidCredential = errors.New("signing credential is not a valid private key")
)

// DeriveAddress returns the account address for a hex-encoded secp256k1
// private key, with or without 0x prefix.
func DeriveAddress(account string) (common.Address, error) {
	key := strings.TrimPrefix(strings.TrimSpace(account), "0x")
	if key == "" {
		return common.Address{}, ErrMissingCredential
	}

	priv, err := crypto.HexToECDSA(key)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return crypto.PubkeyToAddress(priv.PublicKey), nil
}

// Deployer derives the address that signs for a network: the first account
func Deployer(accounts []string) (common.Address, error) {
	if len(accounts) == 0 {
		return common.Address{}, ErrMissingCredential
	}
	return DeriveAddress(accounts[0])
}
