package permkit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// DELEGATION SCOPE OPERATIONS
// ============================================================================

// SetDelegationScope records that a specific non-owner membership may (or may
// not) delegate one permission key. Only the tenant owner may make this
// grant, but that is the caller layer's check: the layer resolving the
// caller's role enforces it (the middleware offers RequireOwner), and the
// store trusts its caller so it carries no authorization logic about itself.
//
// The write upserts on the unique (grantor_member_id, permission_key) index.
// The tenant is taken from the grantor membership. Scope changes are audited
// like override changes: granted when canDelegate is true, revoked otherwise.
func (s *Service) SetDelegationScope(ctx context.Context, grantorMembershipID, key string, canDelegate bool) (*DelegationScope, error) {
	actorID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	grantor, err := s.membership(ctx, grantorMembershipID)
	if err != nil {
		return nil, err
	}
	if err := s.validateKeys(ctx, []string{key}); err != nil {
		return nil, err
	}

	scope := &DelegationScope{
		ID:              uuid.NewString(),
		TenantID:        grantor.TenantID,
		GrantorMemberID: grantorMembershipID,
		PermissionKey:   key,
		CanDelegate:     canDelegate,
		GrantedBy:       actorID,
	}

	result, err := s.db.NewInsert().Model(scope).
		On("CONFLICT (grantor_member_id, permission_key) DO UPDATE").
		Set("can_delegate = EXCLUDED.can_delegate").
		Set("granted_by = EXCLUDED.granted_by").
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "SetDelegationScope").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to set delegation scope").
			WithMembership(grantorMembershipID).
			WithKey(key)
	}

	action := AuditActionGranted
	if !canDelegate {
		action = AuditActionRevoked
	}
	_ = s.logAudit(ctx, auditEntry(ctx, grantor, key, action)) // best-effort

	return scope, nil
}

// RemoveDelegationScope deletes the scope row for (membership, key). A
// missing row means "cannot delegate", so removal is equivalent to revoking
// the allowance. Removing an absent scope succeeds silently.
func (s *Service) RemoveDelegationScope(ctx context.Context, grantorMembershipID, key string) error {
	result, err := s.db.NewDelete().Table("delegation_scopes").
		Where("grantor_member_id = ? AND permission_key = ?", grantorMembershipID, key).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RemoveDelegationScope").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to remove delegation scope").
			WithMembership(grantorMembershipID).
			WithKey(key)
	}
	return nil
}

// GetDelegationScope returns the scope row for (membership, key), or nil
// when none exists.
func (s *Service) GetDelegationScope(ctx context.Context, grantorMembershipID, key string) (*DelegationScope, error) {
	return s.delegationScope(ctx, grantorMembershipID, key)
}

// ListDelegationScopes returns all delegation scopes granted within a tenant.
func (s *Service) ListDelegationScopes(ctx context.Context, tenantID string) ([]DelegationScope, error) {
	var scopes []DelegationScope
	err := dbkit.WithErr1(s.db.NewSelect().Model(&scopes).
		Where("tenant_id = ?", tenantID).
		Order("grantor_member_id ASC, permission_key ASC").
		Scan(ctx), "ListDelegationScopes").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return scopes, nil
}
