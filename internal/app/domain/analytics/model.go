// Package analytics defines the aggregated counters exposed by the pool.
package analytics

import (
	"math/big"
	"time"
)

// Snapshot is a point-in-time view of the global counters and the current
// premium rate. Counters are folds over claim transitions and are strictly
// non-decreasing.
type Snapshot struct {
	ClaimCount        uint64    `json:"claim_count"`
	TotalClaimValue   *big.Int  `json:"total_claim_value"`
	ApprovedClaims    uint64    `json:"approved_claims"`
	RejectedClaims    uint64    `json:"rejected_claims"`
	DisputedClaims    uint64    `json:"disputed_claims"`
	TotalVotesFor     *big.Int  `json:"total_votes_for"`
	TotalVotesAgainst *big.Int  `json:"total_votes_against"`
	PremiumRate       int       `json:"premium_rate"`
	GeneratedAt       time.Time `json:"generated_at"`
}
