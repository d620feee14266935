package journal

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/opencover/claims_layer/internal/app/dao"
	"github.com/opencover/claims_layer/internal/app/storage/memory"
	"github.com/opencover/claims_layer/internal/token"
	"github.com/opencover/claims_layer/pkg/logger"
)

func TestProjection(t *testing.T) {
	ctx := context.Background()

	mock := clock.NewMock()
	mock.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	ledger := token.NewLedger()
	log := logger.NewDefault("journal-test")
	log.SetOutput(io.Discard)

	pool := dao.New(dao.Config{Treasury: "pool-treasury"}, ledger, dao.WithClock(mock), dao.WithLogger(log))
	require.NoError(t, pool.Bootstrap(ctx, "admin"))

	store := memory.New()
	svc := New(pool, store, store, log)
	pool.AddSink(svc.Sink())
	require.NoError(t, svc.Start(ctx))

	require.NoError(t, pool.AssignRole(ctx, "admin", "alice", "member"))
	stake := new(big.Int).Mul(big.NewInt(2), dao.DefaultMinStake())
	ledger.Mint("alice", stake)
	ledger.Approve("alice", "pool-treasury", stake)
	require.NoError(t, pool.Deposit(ctx, "alice", stake))

	record, err := pool.SubmitClaim(ctx, "alice", "storm damage", big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, pool.Vote(ctx, "alice", record.ID, true))

	// Stop drains the buffer, so everything emitted so far is durable.
	require.NoError(t, svc.Stop(ctx))

	evs, err := store.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, evs, 3) // deposit, submit, vote

	claimEvents, err := store.ListClaimEvents(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, claimEvents, 2)

	archived, err := store.GetClaim(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", archived.Claimant)
	require.Zero(t, archived.VotesFor.Cmp(stake))
}

func TestStopIdempotent(t *testing.T) {
	log := logger.NewDefault("journal-test")
	log.SetOutput(io.Discard)

	pool := dao.New(dao.Config{}, token.NewLedger(), dao.WithLogger(log))
	store := memory.New()
	svc := New(pool, store, store, log)

	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))
	require.NoError(t, svc.Start(ctx)) // second start is a no-op
	require.NoError(t, svc.Stop(ctx))
	require.NoError(t, svc.Stop(ctx))
}
