// Package app composes the claims pool into a running application.
//
// # Package Structure
//
//	internal/app/
//	├── dao/       # Pool state machine: roles, staking, claims, premium rate
//	├── domain/    # Domain models (pure data structures)
//	│   ├── member/     # Participants and roles
//	│   ├── claim/      # Claim records and lifecycle states
//	│   └── analytics/  # Aggregate snapshot
//	├── events/    # Committed-transition events and sinks
//	├── storage/   # Journal and archive interfaces
//	│   ├── memory/     # In-memory implementation for tests and local runs
//	│   └── postgres/   # PostgreSQL implementation for production
//	├── services/  # Background services (journal projector)
//	├── httpapi/   # REST handlers, auth, CORS, audit trail
//	├── metrics/   # Prometheus collectors and the event observer
//	├── system/    # Service lifecycle management
//	└── runtime/   # Application wiring and server lifecycle
//
// The dao package owns all authoritative state under a single lock; every
// mutation flows through it and is announced on the event sinks. Storage is
// a projection of that timeline, fed asynchronously by the journal service,
// so the HTTP surface, the metrics and the durable journal never influence
// pool semantics.
package app
