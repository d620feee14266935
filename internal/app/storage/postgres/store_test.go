package postgres

import (
	"context"
	"database/sql"
	"math/big"
	"os"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/events"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestAppendEvent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO pool_events").
		WithArgs(sqlmock.AnyArg(), "vote_cast", int64(3), "alice", nil, "2000000000000000000",
			true, "", 10, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	weight, _ := new(big.Int).SetString("2000000000000000000", 10)
	stored, err := store.AppendEvent(context.Background(), events.Event{
		Type:        events.TypeVoteCast,
		ClaimID:     3,
		Actor:       "alice",
		Weight:      weight,
		Approve:     true,
		PremiumRate: 10,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored.ID == "" || stored.EmittedAt.IsZero() {
		t.Fatalf("append must fill id and timestamp: %+v", stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListClaimEvents(t *testing.T) {
	store, mock := newMockStore(t)

	emitted := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "type", "claim_id", "actor", "amount", "weight", "approve", "status", "premium_rate", "emitted_at",
	}).
		AddRow("ev-1", "claim_submitted", int64(3), "alice", "100", nil, false, "", 0, emitted).
		AddRow("ev-2", "claim_executed", int64(3), "admin", nil, nil, false, "approved", 11, emitted.Add(time.Hour))

	mock.ExpectQuery("FROM pool_events").WithArgs(int64(3)).WillReturnRows(rows)

	got, err := store.ListClaimEvents(context.Background(), 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Amount == nil || got[0].Amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected amount 100, got %v", got[0].Amount)
	}
	if got[1].Weight != nil {
		t.Fatalf("null weight must stay nil, got %v", got[1].Weight)
	}
	if got[1].Status != claim.StatusApproved || got[1].PremiumRate != 11 {
		t.Fatalf("executed event payload wrong: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertClaim(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO pool_claims").
		WithArgs(int64(7), "alice", "storm damage", "100", "0", "0",
			sqlmock.AnyArg(), false, "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertClaim(context.Background(), claim.Claim{
		ID:          7,
		Claimant:    "alice",
		Description: "storm damage",
		Amount:      big.NewInt(100),
		StartTime:   time.Now().UTC(),
		Status:      claim.StatusPending,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetClaim(t *testing.T) {
	store, mock := newMockStore(t)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "claimant", "description", "amount", "votes_for", "votes_against", "start_time", "executed", "status",
	}).AddRow(int64(7), "alice", "storm damage", "100", "2000000000000000000", "0", start, true, "approved")

	mock.ExpectQuery("FROM pool_claims").WithArgs(int64(7)).WillReturnRows(rows)

	got, err := store.GetClaim(context.Background(), 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != 7 || got.Status != claim.StatusApproved || !got.Executed {
		t.Fatalf("unexpected claim: %+v", got)
	}
	want, _ := new(big.Int).SetString("2000000000000000000", 10)
	if got.VotesFor.Cmp(want) != 0 {
		t.Fatalf("expected votesFor %s, got %s", want, got.VotesFor)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	store := New(db)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	record := claim.Claim{
		ID:        1,
		Claimant:  "alice",
		Amount:    big.NewInt(100),
		StartTime: time.Now().UTC(),
		Status:    claim.StatusPending,
	}
	if err := store.UpsertClaim(ctx, record); err != nil {
		t.Fatalf("upsert claim: %v", err)
	}

	if _, err := store.AppendEvent(ctx, events.Event{Type: events.TypeClaimSubmitted, ClaimID: 1, Actor: "alice"}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	got, err := store.GetClaim(ctx, 1)
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if got.Claimant != "alice" {
		t.Fatalf("unexpected claimant %q", got.Claimant)
	}

	evs, err := store.ListClaimEvents(ctx, 1)
	if err != nil {
		t.Fatalf("list claim events: %v", err)
	}
	if len(evs) == 0 {
		t.Fatal("expected at least one event")
	}
}
