package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/events"
	"github.com/opencover/claims_layer/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu      sync.RWMutex
	journal []events.Event
	byClaim map[uint64][]int
	claims  map[uint64]claim.Claim
}

var _ storage.EventStore = (*Store)(nil)
var _ storage.ClaimArchive = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		byClaim: make(map[uint64][]int),
		claims:  make(map[uint64]claim.Claim),
	}
}

// EventStore implementation ---------------------------------------------------

func (s *Store) AppendEvent(_ context.Context, ev events.Event) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.journal = append(s.journal, ev)
	if ev.ClaimID != 0 {
		s.byClaim[ev.ClaimID] = append(s.byClaim[ev.ClaimID], len(s.journal)-1)
	}
	return ev, nil
}

func (s *Store) ListEvents(_ context.Context, limit int) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]events.Event(nil), s.journal...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) ListClaimEvents(_ context.Context, claimID uint64) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indexes := s.byClaim[claimID]
	out := make([]events.Event, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.journal[i])
	}
	return out, nil
}

// ClaimArchive implementation -------------------------------------------------

func (s *Store) UpsertClaim(_ context.Context, record claim.Claim) error {
	if record.ID == 0 {
		return fmt.Errorf("claim id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.claims[record.ID] = record.Clone()
	return nil
}

func (s *Store) GetClaim(_ context.Context, id uint64) (claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.claims[id]
	if !ok {
		return claim.Claim{}, fmt.Errorf("claim %d not found", id)
	}
	return record.Clone(), nil
}

func (s *Store) ListClaims(_ context.Context) ([]claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]claim.Claim, 0, len(s.claims))
	for _, record := range s.claims {
		out = append(out, record.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
