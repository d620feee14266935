package dao

import (
	"context"
	"math/big"

	"github.com/opencover/claims_layer/internal/app/domain/analytics"
)

// recomputePremiumLocked folds the latest terminal or dispute transition
// into the premium rate. A historical approval ratio above 50% nudges the
// rate up one point, below 30% nudges it down one, always inside
// [MinPremiumRate, MaxPremiumRate]. No executed claims means no adjustment.
func (p *Pool) recomputePremiumLocked() {
	totalExecuted := p.approvedClaims + p.rejectedClaims + p.disputedClaims
	if totalExecuted == 0 {
		return
	}

	approvedRatio := p.approvedClaims * 100 / totalExecuted
	switch {
	case approvedRatio > 50 && p.premiumRate < MaxPremiumRate:
		p.premiumRate++
	case approvedRatio < 30 && p.premiumRate > MinPremiumRate:
		p.premiumRate--
	}
}

// CalculatePremium quotes the cost of covering insuredValue at the current
// rate, floor-divided. The calculation itself has no side effects.
func (p *Pool) CalculatePremium(_ context.Context, insuredValue *big.Int) *big.Int {
	p.mu.RLock()
	rate := p.premiumRate
	p.mu.RUnlock()

	if insuredValue == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(insuredValue, big.NewInt(int64(rate)))
	return out.Quo(out, big.NewInt(100))
}

// PremiumRate returns the current bounded rate.
func (p *Pool) PremiumRate(_ context.Context) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.premiumRate
}

// Analytics returns a point-in-time snapshot of the global counters and the
// current premium rate.
func (p *Pool) Analytics(_ context.Context) analytics.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return analytics.Snapshot{
		ClaimCount:        p.claimCount,
		TotalClaimValue:   new(big.Int).Set(p.totalClaimValue),
		ApprovedClaims:    p.approvedClaims,
		RejectedClaims:    p.rejectedClaims,
		DisputedClaims:    p.disputedClaims,
		TotalVotesFor:     new(big.Int).Set(p.totalVotesFor),
		TotalVotesAgainst: new(big.Int).Set(p.totalVotesAgainst),
		PremiumRate:       p.premiumRate,
		GeneratedAt:       p.clock.Now().UTC(),
	}
}
