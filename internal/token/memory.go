package token

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// Ledger is an in-memory Asset implementation. It is safe for concurrent use
// and is intended for tests and local development; production deployments
// point the pool at the real on-chain asset instead.
type Ledger struct {
	mu         sync.RWMutex
	balances   map[string]*big.Int
	allowances map[string]map[string]*big.Int // holder -> spender -> amount
}

var _ Asset = (*Ledger)(nil)

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]map[string]*big.Int),
	}
}

// Mint credits freshly created units to the holder.
func (l *Ledger) Mint(holder string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creditLocked(holder, amount)
}

// Approve grants the spender an allowance over the holder's balance. The
// allowance is overwritten, not accumulated.
func (l *Ledger) Approve(holder, spender string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	grants, ok := l.allowances[holder]
	if !ok {
		grants = make(map[string]*big.Int)
		l.allowances[holder] = grants
	}
	grants[spender] = new(big.Int).Set(amount)
}

// Allowance reports the spender's remaining allowance on the holder.
func (l *Ledger) Allowance(holder, spender string) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if grants, ok := l.allowances[holder]; ok {
		if granted, ok := grants[spender]; ok {
			return new(big.Int).Set(granted)
		}
	}
	return new(big.Int)
}

func (l *Ledger) Transfer(_ context.Context, from, to string, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debitLocked(from, amount); err != nil {
		return err
	}
	l.creditLocked(to, amount)
	return nil
}

func (l *Ledger) TransferFrom(_ context.Context, spender, from, to string, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	grants := l.allowances[from]
	granted, ok := grants[spender]
	if !ok || granted.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s spending for %s", ErrInsufficientAllowance, spender, from)
	}

	if err := l.debitLocked(from, amount); err != nil {
		return err
	}
	granted.Sub(granted, amount)
	l.creditLocked(to, amount)
	return nil
}

func (l *Ledger) BalanceOf(_ context.Context, holder string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if balance, ok := l.balances[holder]; ok {
		return new(big.Int).Set(balance), nil
	}
	return new(big.Int), nil
}

func (l *Ledger) creditLocked(holder string, amount *big.Int) {
	balance, ok := l.balances[holder]
	if !ok {
		balance = new(big.Int)
		l.balances[holder] = balance
	}
	balance.Add(balance, amount)
}

func (l *Ledger) debitLocked(holder string, amount *big.Int) error {
	balance, ok := l.balances[holder]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: holder %s", ErrInsufficientFunds, holder)
	}
	balance.Sub(balance, amount)
	return nil
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return nil
}
