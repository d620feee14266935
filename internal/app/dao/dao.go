// Package dao implements the membership-governed claims pool: role registry,
// stake ledger, claim engine and the premium controller.
//
// All state lives behind a single mutex. Every mutating operation commits or
// fails atomically on one serialized timeline; cross-field consistency
// (counters following claim status, premium following counters) relies on
// that single boundary, so the lock is never split per field.
package dao

import (
	"math/big"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/opencover/claims_layer/internal/app/domain/claim"
	"github.com/opencover/claims_layer/internal/app/domain/member"
	"github.com/opencover/claims_layer/internal/app/events"
	"github.com/opencover/claims_layer/internal/token"
	"github.com/opencover/claims_layer/pkg/logger"
)

// Default pool parameters, matching the deployed contract configuration.
const (
	DefaultVotingPeriod    = 86400 * time.Second
	DefaultChallengePeriod = 3600 * time.Second
	DefaultPremiumRate     = 10

	MinPremiumRate = 5
	MaxPremiumRate = 20
)

// DefaultMinStake returns the default minimum stake (1e18 smallest units).
func DefaultMinStake() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
}

// Config holds the pool parameters. They are fixed at construction and not
// mutable afterwards.
type Config struct {
	// VotingPeriod is how long after submission votes are accepted.
	VotingPeriod time.Duration
	// ChallengePeriod is how long after the voting window executed claims
	// may be disputed.
	ChallengePeriod time.Duration
	// MinStake gates deposits and voting eligibility.
	MinStake *big.Int
	// InitialPremiumRate is the starting percentage, clamped to
	// [MinPremiumRate, MaxPremiumRate].
	InitialPremiumRate int
	// Treasury is the pool's custody account on the external asset.
	Treasury string
}

func (c Config) withDefaults() Config {
	if c.VotingPeriod <= 0 {
		c.VotingPeriod = DefaultVotingPeriod
	}
	if c.ChallengePeriod <= 0 {
		c.ChallengePeriod = DefaultChallengePeriod
	}
	if c.MinStake == nil || c.MinStake.Sign() <= 0 {
		c.MinStake = DefaultMinStake()
	}
	if c.InitialPremiumRate < MinPremiumRate || c.InitialPremiumRate > MaxPremiumRate {
		c.InitialPremiumRate = DefaultPremiumRate
	}
	if c.Treasury == "" {
		c.Treasury = "pool-treasury"
	}
	return c
}

// Pool is the claims DAO instance. The zero value is not usable; construct
// with New.
type Pool struct {
	mu sync.RWMutex

	cfg   Config
	asset token.Asset
	clock clock.Clock
	log   *logger.Logger
	sink  events.Sink

	participants map[string]*member.Participant
	claims       map[uint64]*claim.Claim
	claimCount   uint64

	totalClaimValue   *big.Int
	totalVotesFor     *big.Int
	totalVotesAgainst *big.Int
	approvedClaims    uint64
	rejectedClaims    uint64
	disputedClaims    uint64
	premiumRate       int
}

// Option customises pool construction.
type Option func(*Pool)

// WithClock substitutes the time source. Tests use a mock clock to drive the
// voting and challenge windows.
func WithClock(c clock.Clock) Option {
	return func(p *Pool) { p.clock = c }
}

// WithLogger sets the pool logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// WithSink registers an event observer. Multiple sinks fan out in
// registration order.
func WithSink(s events.Sink) Option {
	return func(p *Pool) {
		if p.sink == nil {
			p.sink = s
			return
		}
		if fan, ok := p.sink.(events.Fanout); ok {
			p.sink = append(fan, s)
			return
		}
		p.sink = events.Fanout{p.sink, s}
	}
}

// AddSink registers an event observer after construction. Not safe to call
// once the pool is serving traffic.
func (p *Pool) AddSink(s events.Sink) {
	WithSink(s)(p)
}

// New constructs a pool bound to the given asset collaborator. The account
// named in cfg.Treasury holds custody of all staked funds.
func New(cfg Config, asset token.Asset, opts ...Option) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:               cfg,
		asset:             asset,
		participants:      make(map[string]*member.Participant),
		claims:            make(map[uint64]*claim.Claim),
		totalClaimValue:   new(big.Int),
		totalVotesFor:     new(big.Int),
		totalVotesAgainst: new(big.Int),
		premiumRate:       cfg.InitialPremiumRate,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.clock == nil {
		p.clock = clock.New()
	}
	if p.log == nil {
		p.log = logger.NewDefault("dao")
	}
	return p
}

// Params returns the pool's fixed configuration.
func (p *Pool) Params() Config {
	cfg := p.cfg
	cfg.MinStake = new(big.Int).Set(p.cfg.MinStake)
	return cfg
}

func (p *Pool) emit(ev events.Event) {
	if p.sink == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.EmittedAt = p.clock.Now().UTC()
	p.sink.Emit(ev)
}

// participantLocked returns the record for the address, creating it in the
// absent state when missing.
func (p *Pool) participantLocked(address string) *member.Participant {
	if existing, ok := p.participants[address]; ok {
		return existing
	}
	now := p.clock.Now().UTC()
	created := &member.Participant{
		Address:   address,
		Role:      member.RoleNone,
		Staked:    new(big.Int),
		JoinedAt:  now,
		UpdatedAt: now,
	}
	p.participants[address] = created
	return created
}

func (p *Pool) roleLocked(address string) member.Role {
	if existing, ok := p.participants[address]; ok {
		return existing.Role
	}
	return member.RoleNone
}
