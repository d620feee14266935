// Package events defines the observable events emitted by the claims pool
// and the sink contract observers implement.
package events

import (
	"math/big"
	"time"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
)

// Type identifies an event kind.
type Type string

const (
	TypeClaimSubmitted  Type = "claim_submitted"
	TypeVoteCast        Type = "vote_cast"
	TypeClaimExecuted   Type = "claim_executed"
	TypeClaimChallenged Type = "claim_challenged"
	TypeStakeDeposited  Type = "stake_deposited"
	TypeStakeWithdrawn  Type = "stake_withdrawn"
)

// Event is a single committed pool transition. Fields that do not apply to
// the event type are zero.
type Event struct {
	ID      string       `json:"id"`
	Type    Type         `json:"type"`
	ClaimID uint64       `json:"claim_id,omitempty"`
	Actor   string       `json:"actor,omitempty"`
	Amount  *big.Int     `json:"amount,omitempty"`
	Weight  *big.Int     `json:"weight,omitempty"`
	Approve bool         `json:"approve,omitempty"`
	Status  claim.Status `json:"status,omitempty"`
	// PremiumRate carries the rate after the controller ran, on executed and
	// challenged events.
	PremiumRate int       `json:"premium_rate,omitempty"`
	EmittedAt   time.Time `json:"emitted_at"`
}

// Sink receives committed events. Emit is invoked synchronously on the
// pool's serialized timeline, so implementations must return quickly and
// must never call back into the pool; buffer and hand off instead.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

// Emit implements Sink.
func (f SinkFunc) Emit(ev Event) { f(ev) }

// Fanout broadcasts each event to every sink in order.
type Fanout []Sink

// Emit implements Sink.
func (f Fanout) Emit(ev Event) {
	for _, s := range f {
		s.Emit(ev)
	}
}
