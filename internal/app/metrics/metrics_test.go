package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/events"
)

func TestObserverFoldsEvents(t *testing.T) {
	submittedBefore := testutil.ToFloat64(claimsSubmitted)
	approvesBefore := testutil.ToFloat64(votesCast.WithLabelValues("true"))
	executedBefore := testutil.ToFloat64(claimsExecuted.WithLabelValues("approved"))
	depositsBefore := testutil.ToFloat64(stakeMovements.WithLabelValues("deposit"))

	var obs Observer
	obs.Emit(events.Event{Type: events.TypeStakeDeposited})
	obs.Emit(events.Event{Type: events.TypeClaimSubmitted})
	obs.Emit(events.Event{Type: events.TypeVoteCast, Approve: true})
	obs.Emit(events.Event{Type: events.TypeClaimExecuted, Status: claim.StatusApproved, PremiumRate: 11})

	if got := testutil.ToFloat64(claimsSubmitted) - submittedBefore; got != 1 {
		t.Fatalf("expected 1 submitted, got %v", got)
	}
	if got := testutil.ToFloat64(votesCast.WithLabelValues("true")) - approvesBefore; got != 1 {
		t.Fatalf("expected 1 approve vote, got %v", got)
	}
	if got := testutil.ToFloat64(claimsExecuted.WithLabelValues("approved")) - executedBefore; got != 1 {
		t.Fatalf("expected 1 approved execution, got %v", got)
	}
	if got := testutil.ToFloat64(stakeMovements.WithLabelValues("deposit")) - depositsBefore; got != 1 {
		t.Fatalf("expected 1 deposit, got %v", got)
	}
	if got := testutil.ToFloat64(premiumRate); got != 11 {
		t.Fatalf("executed event must move the rate gauge, got %v", got)
	}
}

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"/":                  "/",
		"/claims":            "/claims",
		"/claims/12":         "/claims/:id",
		"/claims/12/votes":   "/claims/:id/votes",
		"/claims/12/execute": "/claims/:id/execute",
		"/members/0xabc":     "/members/:address",
		"/stake/deposit":     "/stake/deposit",
		"/analytics":         "/analytics",
	}
	for raw, want := range cases {
		if got := canonicalPath(raw); got != want {
			t.Fatalf("canonicalPath(%q) = %q, want %q", raw, got, want)
		}
	}
}
