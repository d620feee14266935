package storage

import (
	"context"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/events"
)

// EventStore persists the committed event journal.
type EventStore interface {
	AppendEvent(ctx context.Context, ev events.Event) (events.Event, error)
	ListEvents(ctx context.Context, limit int) ([]events.Event, error)
	ListClaimEvents(ctx context.Context, claimID uint64) ([]events.Event, error)
}

// ClaimArchive persists claim snapshots as a read projection of the pool
// state. The pool itself stays authoritative; the archive feeds the query
// surface and audits.
type ClaimArchive interface {
	UpsertClaim(ctx context.Context, record claim.Claim) error
	GetClaim(ctx context.Context, id uint64) (claim.Claim, error)
	ListClaims(ctx context.Context) ([]claim.Claim, error)
}
