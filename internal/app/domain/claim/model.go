// Package claim defines the claim record and its lifecycle states.
package claim

import (
	"math/big"
	"time"
)

// Status represents the lifecycle state of a claim.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDisputed Status = "disputed"
)

// Claim is a request against the shared pool. Identifiers are 1-based and
// never reused. VotesFor and VotesAgainst accumulate staked weight and never
// decrease; Executed flips false to true at most once.
type Claim struct {
	ID           uint64    `json:"id"`
	Claimant     string    `json:"claimant"`
	Description  string    `json:"description"`
	Amount       *big.Int  `json:"amount"`
	VotesFor     *big.Int  `json:"votes_for"`
	VotesAgainst *big.Int  `json:"votes_against"`
	StartTime    time.Time `json:"start_time"`
	Executed     bool      `json:"executed"`
	Status       Status    `json:"status"`
}

// Clone returns a deep copy so callers cannot mutate engine-owned state.
func (c Claim) Clone() Claim {
	out := c
	if c.Amount != nil {
		out.Amount = new(big.Int).Set(c.Amount)
	}
	if c.VotesFor != nil {
		out.VotesFor = new(big.Int).Set(c.VotesFor)
	}
	if c.VotesAgainst != nil {
		out.VotesAgainst = new(big.Int).Set(c.VotesAgainst)
	}
	return out
}
