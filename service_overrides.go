package permkit

import (
	"context"

	"github.com/google/uuid"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// PER-MEMBER OVERRIDE OPERATIONS
// ============================================================================

// SetOverride upserts the override row for (membership, key): granted=true
// force-adds the key to the member's effective set, granted=false
// force-removes it. The write is a single constrained insert resolved by the
// unique (membership_id, permission_key) index, so two concurrent calls for
// the same pair settle last-write-wins with no read-then-write race.
//
// Exactly one audit entry is appended per call, action "granted" or
// "revoked". The audit tenant is resolved from the target membership's
// tenant, not the actor's active tenant, so the record stays correct if the
// two ever diverge. The audit write is best-effort and never rolls back the
// override.
func (s *Service) SetOverride(ctx context.Context, membershipID, key string, granted bool) (*PermissionOverride, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.membership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if err := s.validateKeys(ctx, []string{key}); err != nil {
		return nil, err
	}

	override := &PermissionOverride{
		ID:            uuid.NewString(),
		MembershipID:  membershipID,
		PermissionKey: key,
		Granted:       granted,
		GrantedBy:     actorID,
	}

	result, err := s.db.NewInsert().Model(override).
		On("CONFLICT (membership_id, permission_key) DO UPDATE").
		Set("granted = EXCLUDED.granted").
		Set("granted_by = EXCLUDED.granted_by").
		Set("granted_at = current_timestamp").
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "SetOverride").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to set permission override").
			WithMembership(membershipID).
			WithKey(key)
	}

	s.invalidateMember(membershipID)

	action := AuditActionGranted
	if !granted {
		action = AuditActionRevoked
	}
	_ = s.logAudit(ctx, auditEntry(ctx, target, key, action)) // best-effort, never fails the override

	return override, nil
}

// RemoveOverride deletes the override row for (membership, key), returning
// the member to whatever the bundles supply for that key. Removing an absent
// override succeeds silently.
//
// Removal appends no audit entry. Only override creation is audited; whether
// removal should be too is an open product question, so the asymmetry is
// kept rather than silently changed.
func (s *Service) RemoveOverride(ctx context.Context, membershipID, key string) error {
	result, err := s.db.NewDelete().Table("member_permission_overrides").
		Where("membership_id = ? AND permission_key = ?", membershipID, key).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RemoveOverride").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to remove permission override").
			WithMembership(membershipID).
			WithKey(key)
	}

	s.invalidateMember(membershipID)
	return nil
}

// ListOverrides returns all override rows for a membership.
func (s *Service) ListOverrides(ctx context.Context, membershipID string) ([]PermissionOverride, error) {
	return s.memberOverrides(ctx, membershipID)
}

// GetOverride returns the override row for (membership, key), or nil when
// none exists.
func (s *Service) GetOverride(ctx context.Context, membershipID, key string) (*PermissionOverride, error) {
	overrides, err := s.memberOverrides(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	for i := range overrides {
		if overrides[i].PermissionKey == key {
			return &overrides[i], nil
		}
	}
	return nil, nil
}
