// Package journal drains committed pool events into durable storage and
// keeps the claim archive projection current.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/opencover/claims_layer/internal/app/dao"
	"github.com/opencover/claims_layer/internal/app/events"
	"github.com/opencover/claims_layer/internal/app/storage"
	"github.com/opencover/claims_layer/pkg/logger"
)

const defaultBuffer = 256

// Service is a lifecycle-managed projector. Its Sink enqueues events from
// the pool's serialized timeline; a single worker goroutine persists them,
// so storage latency never blocks pool operations.
type Service struct {
	pool    *dao.Pool
	journal storage.EventStore
	archive storage.ClaimArchive
	log     *logger.Logger

	ch   chan events.Event
	stop chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New constructs the journal service.
func New(pool *dao.Pool, journal storage.EventStore, archive storage.ClaimArchive, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("journal")
	}
	return &Service{
		pool:    pool,
		journal: journal,
		archive: archive,
		log:     log,
		ch:      make(chan events.Event, defaultBuffer),
		stop:    make(chan struct{}),
	}
}

// Name implements system.Service.
func (s *Service) Name() string { return "journal" }

// Sink returns the event sink to register with the pool. Events are dropped
// with a warning if the buffer is full rather than blocking the pool.
func (s *Service) Sink() events.Sink {
	return events.SinkFunc(func(ev events.Event) {
		select {
		case s.ch <- ev:
		default:
			s.log.WithField("event_id", ev.ID).WithField("type", string(ev.Type)).
				Warn("journal buffer full, event dropped")
		}
	})
}

// Start launches the worker.
func (s *Service) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop drains buffered events and stops the worker.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.ch:
			s.persist(ev)
		case <-s.stop:
			// drain whatever is buffered before exiting
			for {
				select {
				case ev := <-s.ch:
					s.persist(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) persist(ev events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.journal.AppendEvent(ctx, ev); err != nil {
		s.log.WithError(err).WithField("event_id", ev.ID).Warn("append event")
	}

	if ev.ClaimID == 0 || s.archive == nil {
		return
	}
	record, err := s.pool.Claim(ctx, ev.ClaimID)
	if err != nil {
		s.log.WithError(err).WithField("claim_id", ev.ClaimID).Warn("load claim for archive")
		return
	}
	if err := s.archive.UpsertClaim(ctx, record); err != nil {
		s.log.WithError(err).WithField("claim_id", ev.ClaimID).Warn("archive claim")
	}
}
