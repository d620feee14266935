package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/events"
)

func TestAppendAndListEvents(t *testing.T) {
	ctx := context.Background()
	store := New()

	for i := 1; i <= 3; i++ {
		ev := events.Event{Type: events.TypeVoteCast, ClaimID: uint64(i), Actor: "alice"}
		stored, err := store.AppendEvent(ctx, ev)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if stored.ID == "" {
			t.Fatalf("append must assign an id")
		}
	}

	all, err := store.ListEvents(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	tail, err := store.ListEvents(ctx, 2)
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(tail) != 2 || tail[0].ClaimID != 2 || tail[1].ClaimID != 3 {
		t.Fatalf("limit must keep the newest events, got %+v", tail)
	}
}

func TestListClaimEvents(t *testing.T) {
	ctx := context.Background()
	store := New()

	for _, id := range []uint64{1, 2, 1} {
		if _, err := store.AppendEvent(ctx, events.Event{Type: events.TypeVoteCast, ClaimID: id}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	// events without a claim id stay out of the per-claim index
	if _, err := store.AppendEvent(ctx, events.Event{Type: events.TypeStakeDeposited, Actor: "alice"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.ListClaimEvents(ctx, 1)
	if err != nil {
		t.Fatalf("list claim events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events for claim 1, got %d", len(got))
	}

	none, err := store.ListClaimEvents(ctx, 42)
	if err != nil {
		t.Fatalf("list claim events: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no events for unknown claim, got %d", len(none))
	}
}

func TestClaimArchive(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.UpsertClaim(ctx, claim.Claim{}); err == nil {
		t.Fatal("expected error for missing claim id")
	}

	record := claim.Claim{
		ID:           7,
		Claimant:     "alice",
		Amount:       big.NewInt(100),
		VotesFor:     big.NewInt(5),
		VotesAgainst: big.NewInt(2),
		Status:       claim.StatusPending,
	}
	if err := store.UpsertClaim(ctx, record); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// mutations after the upsert must not leak into the archive
	record.VotesFor.SetInt64(999)

	got, err := store.GetClaim(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.VotesFor.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("archive stores a deep copy, got votesFor %s", got.VotesFor)
	}

	record.Status = claim.StatusApproved
	record.VotesFor = big.NewInt(5)
	if err := store.UpsertClaim(ctx, record); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	got, err = store.GetClaim(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != claim.StatusApproved {
		t.Fatalf("upsert must overwrite, got status %s", got.Status)
	}

	if _, err := store.GetClaim(ctx, 99); err == nil {
		t.Fatal("expected error for unknown claim")
	}
}

func TestListClaimsSorted(t *testing.T) {
	ctx := context.Background()
	store := New()

	for _, id := range []uint64{3, 1, 2} {
		if err := store.UpsertClaim(ctx, claim.Claim{ID: id, Amount: big.NewInt(1)}); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}

	got, err := store.ListClaims(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(got))
	}
	for i, record := range got {
		if record.ID != uint64(i+1) {
			t.Fatalf("claims must come back ordered by id, got %d at %d", record.ID, i)
		}
	}
}
