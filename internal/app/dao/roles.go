package dao

import (
	"context"
	"fmt"
	"math/big"

	"github.com/opencover/claims_layer/internal/app/domain/member"
)

// AssignRole overwrites the target's role. Only admins may assign roles, and
// RoleNone cannot be assigned; revocation is not part of the registry.
// Assignment is idempotent and keeps no history.
func (p *Pool) AssignRole(_ context.Context, caller, target string, role member.Role) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireAdminLocked(caller); err != nil {
		return err
	}
	if role == member.RoleNone || !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	participant := p.participantLocked(target)
	participant.Role = role
	participant.UpdatedAt = p.clock.Now().UTC()

	p.log.WithField("target", target).WithField("role", string(role)).Info("role assigned")
	return nil
}

// RoleOf reports the target's current role. Unknown addresses are RoleNone.
func (p *Pool) RoleOf(_ context.Context, target string) member.Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.roleLocked(target)
}

// Participant returns a copy of the target's record.
func (p *Pool) Participant(_ context.Context, target string) (member.Participant, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	existing, ok := p.participants[target]
	if !ok {
		return member.Participant{}, fmt.Errorf("%w: %s", ErrUnknownMember, target)
	}
	out := *existing
	out.Staked = new(big.Int).Set(existing.Staked)
	return out, nil
}

// Gating is flat: member-gated operations accept any role other than
// RoleNone, admin-gated ones require exactly RoleAdmin. A higher tier never
// inherits a lower tier's privileges.

func (p *Pool) requireAdminLocked(caller string) error {
	if p.roleLocked(caller) != member.RoleAdmin {
		return fmt.Errorf("%w: %s is not an admin", ErrUnauthorized, caller)
	}
	return nil
}

func (p *Pool) requireMemberLocked(caller string) error {
	if p.roleLocked(caller) == member.RoleNone {
		return fmt.Errorf("%w: %s is not a member", ErrUnauthorized, caller)
	}
	return nil
}

// Bootstrap installs the first admin. It is intended for initial wiring
// before any admin exists and fails once one does.
func (p *Pool) Bootstrap(_ context.Context, admin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, participant := range p.participants {
		if participant.Role == member.RoleAdmin {
			return fmt.Errorf("%w: pool already has an admin", ErrUnauthorized)
		}
	}

	participant := p.participantLocked(admin)
	participant.Role = member.RoleAdmin
	participant.UpdatedAt = p.clock.Now().UTC()
	p.log.WithField("admin", admin).Info("pool admin bootstrapped")
	return nil
}
