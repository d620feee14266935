package dao

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/events"
)

// SubmitClaim records a new claim against the pool and opens its voting
// window. Submission is deliberately ungated: any caller may file, member or
// not, and the requested amount is not validated. Adjudication happens at
// the vote and execution stages instead.
func (p *Pool) SubmitClaim(_ context.Context, caller, description string, amount *big.Int) (claim.Claim, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount == nil {
		amount = new(big.Int)
	}

	p.claimCount++
	record := &claim.Claim{
		ID:           p.claimCount,
		Claimant:     caller,
		Description:  description,
		Amount:       new(big.Int).Set(amount),
		VotesFor:     new(big.Int),
		VotesAgainst: new(big.Int),
		StartTime:    p.clock.Now().UTC(),
		Status:       claim.StatusPending,
	}
	p.claims[record.ID] = record
	p.totalClaimValue.Add(p.totalClaimValue, amount)

	p.emit(events.Event{
		Type:    events.TypeClaimSubmitted,
		ClaimID: record.ID,
		Actor:   caller,
		Amount:  new(big.Int).Set(amount),
	})
	p.log.WithField("claim_id", record.ID).
		WithField("claimant", caller).
		WithField("amount", amount.String()).
		Info("claim submitted")
	return record.Clone(), nil
}

// Vote adds the caller's full current staked balance to the claim's tally
// and the matching global total. Votes are accepted while the window is
// open and the claim is unexecuted, and the caller must hold at least the
// minimum stake.
//
// There is no per-claim deduplication: voting again re-adds the caller's
// current balance as fresh weight. Tallies snapshot weight at call time, so
// a later withdrawal does not reduce weight already folded in.
func (p *Pool) Vote(_ context.Context, caller string, claimID uint64, approve bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireMemberLocked(caller); err != nil {
		return err
	}
	record, ok := p.claims[claimID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrClaimNotFound, claimID)
	}

	deadline := record.StartTime.Add(p.cfg.VotingPeriod)
	if p.clock.Now().After(deadline) {
		return fmt.Errorf("%w: claim %d closed at %s", ErrVotingClosed, claimID, deadline.Format(time.RFC3339))
	}
	if record.Executed {
		return fmt.Errorf("%w: claim %d", ErrAlreadyExecuted, claimID)
	}

	participant := p.participants[caller]
	if participant.Staked.Cmp(p.cfg.MinStake) < 0 {
		return fmt.Errorf("%w: staked %s, minimum %s", ErrInsufficientStake, participant.Staked, p.cfg.MinStake)
	}

	weight := new(big.Int).Set(participant.Staked)
	if approve {
		record.VotesFor.Add(record.VotesFor, weight)
		p.totalVotesFor.Add(p.totalVotesFor, weight)
	} else {
		record.VotesAgainst.Add(record.VotesAgainst, weight)
		p.totalVotesAgainst.Add(p.totalVotesAgainst, weight)
	}

	p.emit(events.Event{
		Type:    events.TypeVoteCast,
		ClaimID: claimID,
		Actor:   caller,
		Approve: approve,
		Weight:  weight,
	})
	p.log.WithField("claim_id", claimID).
		WithField("voter", caller).
		WithField("approve", approve).
		WithField("weight", weight.String()).
		Info("vote cast")
	return nil
}

// ExecuteClaim finalizes a claim after its voting window has closed. Only
// admins may execute. A strict weighted majority of votes for approves the
// claim; a tie rejects it. Execution flips the executed flag exactly once
// and runs the premium controller.
func (p *Pool) ExecuteClaim(_ context.Context, caller string, claimID uint64) (claim.Claim, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdminLocked(caller); err != nil {
		return claim.Claim{}, err
	}
	record, ok := p.claims[claimID]
	if !ok {
		return claim.Claim{}, fmt.Errorf("%w: %d", ErrClaimNotFound, claimID)
	}

	deadline := record.StartTime.Add(p.cfg.VotingPeriod)
	if !p.clock.Now().After(deadline) {
		return claim.Claim{}, fmt.Errorf("%w: claim %d open until %s", ErrVotingStillOpen, claimID, deadline.Format(time.RFC3339))
	}
	if record.Executed {
		return claim.Claim{}, fmt.Errorf("%w: claim %d", ErrAlreadyExecuted, claimID)
	}

	if record.VotesFor.Cmp(record.VotesAgainst) > 0 {
		record.Status = claim.StatusApproved
		p.approvedClaims++
	} else {
		record.Status = claim.StatusRejected
		p.rejectedClaims++
	}
	record.Executed = true
	p.recomputePremiumLocked()

	p.emit(events.Event{
		Type:        events.TypeClaimExecuted,
		ClaimID:     claimID,
		Actor:       caller,
		Status:      record.Status,
		PremiumRate: p.premiumRate,
	})
	p.log.WithField("claim_id", claimID).
		WithField("status", string(record.Status)).
		WithField("premium_rate", p.premiumRate).
		Info("claim executed")
	return record.Clone(), nil
}

// ChallengeClaim marks an executed claim as disputed. Any member may
// challenge within the challenge window. The transition is unguarded: a
// claim already disputed can be challenged again, and each call
// re-increments the disputed counter and re-runs the premium controller.
// The dispute annotation is sticky and does not rewind the approved or
// rejected bookkeeping already folded into the counters.
func (p *Pool) ChallengeClaim(_ context.Context, caller string, claimID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireMemberLocked(caller); err != nil {
		return err
	}
	record, ok := p.claims[claimID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrClaimNotFound, claimID)
	}
	if !record.Executed {
		return fmt.Errorf("%w: claim %d", ErrNotExecuted, claimID)
	}

	deadline := record.StartTime.Add(p.cfg.VotingPeriod + p.cfg.ChallengePeriod)
	if p.clock.Now().After(deadline) {
		return fmt.Errorf("%w: claim %d window ended %s", ErrChallengeWindowClosed, claimID, deadline.Format(time.RFC3339))
	}

	record.Status = claim.StatusDisputed
	p.disputedClaims++
	p.recomputePremiumLocked()

	p.emit(events.Event{
		Type:        events.TypeClaimChallenged,
		ClaimID:     claimID,
		Actor:       caller,
		Status:      record.Status,
		PremiumRate: p.premiumRate,
	})
	p.log.WithField("claim_id", claimID).
		WithField("challenger", caller).
		Info("claim challenged")
	return nil
}

// Claim returns a copy of the claim record.
func (p *Pool) Claim(_ context.Context, claimID uint64) (claim.Claim, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	record, ok := p.claims[claimID]
	if !ok {
		return claim.Claim{}, fmt.Errorf("%w: %d", ErrClaimNotFound, claimID)
	}
	return record.Clone(), nil
}

// Claims returns copies of all claims ordered by identifier.
func (p *Pool) Claims(_ context.Context) []claim.Claim {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]claim.Claim, 0, len(p.claims))
	for _, record := range p.claims {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
