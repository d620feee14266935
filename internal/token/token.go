// Package token abstracts the external fungible asset the pool stakes.
//
// The claims layer never implements the asset itself; it only pulls stake
// into custody and pushes it back out. Any collaborator failure surfaces to
// the caller as a transfer failure, never as corrupt pool state.
package token

import (
	"context"
	"errors"
	"math/big"
)

// Ledger errors surfaced by asset implementations.
var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// Asset is the fungible-token collaborator contract. Amounts are
// smallest-unit quantities and must be positive.
type Asset interface {
	// Transfer moves amount from the holder's account to the recipient.
	Transfer(ctx context.Context, from, to string, amount *big.Int) error
	// TransferFrom moves amount from `from` to `to` on behalf of `spender`,
	// consuming spender's allowance on the `from` account.
	TransferFrom(ctx context.Context, spender, from, to string, amount *big.Int) error
	// BalanceOf reports the holder's current balance.
	BalanceOf(ctx context.Context, holder string) (*big.Int, error)
}
