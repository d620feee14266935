// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/events"
	"github.com/opencover/claims_layer/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.EventStore = (*Store)(nil)
var _ storage.ClaimArchive = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the journal and archive tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pool_events (
			id           TEXT PRIMARY KEY,
			type         TEXT NOT NULL,
			claim_id     BIGINT NOT NULL DEFAULT 0,
			actor        TEXT NOT NULL DEFAULT '',
			amount       NUMERIC(78,0),
			weight       NUMERIC(78,0),
			approve      BOOLEAN NOT NULL DEFAULT FALSE,
			status       TEXT NOT NULL DEFAULT '',
			premium_rate INTEGER NOT NULL DEFAULT 0,
			emitted_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS pool_events_claim_idx ON pool_events (claim_id);

		CREATE TABLE IF NOT EXISTS pool_claims (
			id            BIGINT PRIMARY KEY,
			claimant      TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			amount        NUMERIC(78,0) NOT NULL,
			votes_for     NUMERIC(78,0) NOT NULL,
			votes_against NUMERIC(78,0) NOT NULL,
			start_time    TIMESTAMPTZ NOT NULL,
			executed      BOOLEAN NOT NULL,
			status        TEXT NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// --- EventStore -------------------------------------------------------------

func (s *Store) AppendEvent(ctx context.Context, ev events.Event) (events.Event, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.EmittedAt.IsZero() {
		ev.EmittedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pool_events (id, type, claim_id, actor, amount, weight, approve, status, premium_rate, emitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ev.ID, string(ev.Type), int64(ev.ClaimID), ev.Actor, numericOrNil(ev.Amount), numericOrNil(ev.Weight),
		ev.Approve, string(ev.Status), ev.PremiumRate, ev.EmittedAt)
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

func (s *Store) ListEvents(ctx context.Context, limit int) ([]events.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, claim_id, actor, amount, weight, approve, status, premium_rate, emitted_at
		FROM pool_events
		ORDER BY emitted_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListClaimEvents(ctx context.Context, claimID uint64) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, claim_id, actor, amount, weight, approve, status, premium_rate, emitted_at
		FROM pool_events
		WHERE claim_id = $1
		ORDER BY emitted_at
	`, int64(claimID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// --- ClaimArchive -----------------------------------------------------------

func (s *Store) UpsertClaim(ctx context.Context, record claim.Claim) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pool_claims (id, claimant, description, amount, votes_for, votes_against, start_time, executed, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			votes_for = EXCLUDED.votes_for,
			votes_against = EXCLUDED.votes_against,
			executed = EXCLUDED.executed,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, int64(record.ID), record.Claimant, record.Description, numericOrZero(record.Amount),
		numericOrZero(record.VotesFor), numericOrZero(record.VotesAgainst),
		record.StartTime, record.Executed, string(record.Status), time.Now().UTC())
	return err
}

func (s *Store) GetClaim(ctx context.Context, id uint64) (claim.Claim, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, claimant, description, amount, votes_for, votes_against, start_time, executed, status
		FROM pool_claims
		WHERE id = $1
	`, int64(id))
	return scanClaim(row)
}

func (s *Store) ListClaims(ctx context.Context) ([]claim.Claim, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, claimant, description, amount, votes_for, votes_against, start_time, executed, status
		FROM pool_claims
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []claim.Claim
	for rows.Next() {
		record, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// --- scanning helpers -------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (claim.Claim, error) {
	var (
		record       claim.Claim
		id           int64
		amount       string
		votesFor     string
		votesAgainst string
		status       string
	)
	if err := row.Scan(&id, &record.Claimant, &record.Description, &amount, &votesFor,
		&votesAgainst, &record.StartTime, &record.Executed, &status); err != nil {
		return claim.Claim{}, err
	}
	record.ID = uint64(id)
	record.Status = claim.Status(status)

	var err error
	if record.Amount, err = parseNumeric(amount); err != nil {
		return claim.Claim{}, err
	}
	if record.VotesFor, err = parseNumeric(votesFor); err != nil {
		return claim.Claim{}, err
	}
	if record.VotesAgainst, err = parseNumeric(votesAgainst); err != nil {
		return claim.Claim{}, err
	}
	return record, nil
}

func scanEvents(rows *sql.Rows) ([]events.Event, error) {
	var result []events.Event
	for rows.Next() {
		var (
			ev      events.Event
			evType  string
			claimID int64
			amount  sql.NullString
			weight  sql.NullString
			status  string
		)
		if err := rows.Scan(&ev.ID, &evType, &claimID, &ev.Actor, &amount, &weight,
			&ev.Approve, &status, &ev.PremiumRate, &ev.EmittedAt); err != nil {
			return nil, err
		}
		ev.Type = events.Type(evType)
		ev.ClaimID = uint64(claimID)
		ev.Status = claim.Status(status)

		var err error
		if amount.Valid {
			if ev.Amount, err = parseNumeric(amount.String); err != nil {
				return nil, err
			}
		}
		if weight.Valid {
			if ev.Weight, err = parseNumeric(weight.String); err != nil {
				return nil, err
			}
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

func numericOrNil(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func numericOrZero(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseNumeric(raw string) (*big.Int, error) {
	out, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", raw)
	}
	return out, nil
}
