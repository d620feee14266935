package dao

import (
	"context"
	"fmt"
	"math/big"

	"github.com/opencover/claims_layer/internal/app/events"
)

// Deposit pulls amount from the caller's asset account into pool custody and
// credits their staking balance. The caller must be a member, must have
// approved the treasury as spender, and the amount must meet the minimum
// stake.
func (p *Pool) Deposit(ctx context.Context, caller string, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireMemberLocked(caller); err != nil {
		return err
	}
	if amount == nil || amount.Cmp(p.cfg.MinStake) < 0 {
		return fmt.Errorf("%w: minimum is %s", ErrBelowMinimumStake, p.cfg.MinStake)
	}

	if err := p.asset.TransferFrom(ctx, p.cfg.Treasury, caller, p.cfg.Treasury, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	participant := p.participantLocked(caller)
	participant.Staked.Add(participant.Staked, amount)
	participant.UpdatedAt = p.clock.Now().UTC()

	p.emit(events.Event{
		Type:   events.TypeStakeDeposited,
		Actor:  caller,
		Amount: new(big.Int).Set(amount),
	})
	p.log.WithField("staker", caller).WithField("amount", amount.String()).Info("stake deposited")
	return nil
}

// Withdraw debits the caller's staking balance and pushes the amount back to
// their asset account.
//
// The ledger is debited before the external push, mirroring the deployed
// contract: if the push fails the debit stands and the call reports
// ErrTransferFailed. Operators reconcile such stranded debits out of band.
func (p *Pool) Withdraw(ctx context.Context, caller string, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	participant, ok := p.participants[caller]
	if !ok || amount == nil || amount.Cmp(participant.Staked) > 0 {
		return fmt.Errorf("%w: requested %s", ErrInsufficientStake, amountString(amount))
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInsufficientStake)
	}

	participant.Staked.Sub(participant.Staked, amount)
	participant.UpdatedAt = p.clock.Now().UTC()

	if err := p.asset.Transfer(ctx, p.cfg.Treasury, caller, amount); err != nil {
		p.log.WithError(err).WithField("staker", caller).Warn("stake push failed after ledger debit")
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	p.emit(events.Event{
		Type:   events.TypeStakeWithdrawn,
		Actor:  caller,
		Amount: new(big.Int).Set(amount),
	})
	p.log.WithField("staker", caller).WithField("amount", amount.String()).Info("stake withdrawn")
	return nil
}

// StakeOf reports the caller's current staking balance, which is also their
// voting weight at any instant.
func (p *Pool) StakeOf(_ context.Context, address string) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if participant, ok := p.participants[address]; ok {
		return new(big.Int).Set(participant.Staked)
	}
	return new(big.Int)
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "<nil>"
	}
	return amount.String()
}
