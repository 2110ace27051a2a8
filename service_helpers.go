package permkit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// membership resolves a membership id through the directory. A blank id or an
// unknown membership is an identity failure: the caller never presented a
// resolvable subject.
func (s *Service) membership(ctx context.Context, membershipID string) (*Membership, error) {
	if membershipID == "" {
		return nil, NewError(ErrUnauthenticated, "membership id required")
	}
	m, err := s.members.Membership(ctx, membershipID)
	if err != nil {
		if IsNotFound(err) {
			return nil, NewError(ErrUnauthenticated, "membership not resolvable").WithMembership(membershipID)
		}
		return nil, err
	}
	return m, nil
}

// memberBundleKeys returns the union of permission keys supplied by the
// membership's assigned bundles.
func (s *Service) memberBundleKeys(ctx context.Context, membershipID string) ([]string, error) {
	var keys []string
	err := dbkit.WithErr1(s.db.NewRaw(
		"SELECT DISTINCT bp.permission_key FROM bundle_permissions bp "+
			"JOIN membership_bundle_assignments mba ON mba.bundle_id = bp.bundle_id "+
			"WHERE mba.membership_id = ?", membershipID).Scan(ctx, &keys), "MemberBundleKeys").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return keys, nil
}

// memberOverrides returns all override rows for a membership.
func (s *Service) memberOverrides(ctx context.Context, membershipID string) ([]PermissionOverride, error) {
	var overrides []PermissionOverride
	err := dbkit.WithErr1(s.db.NewSelect().Model(&overrides).
		Where("membership_id = ?", membershipID).
		Order("permission_key ASC").
		Scan(ctx), "MemberOverrides").Err()
	if err != nil {
		return nil, err
	}
	return overrides, nil
}

// effectiveSet resolves the effective permission set for a membership. The
// owner short-circuits to the registry universe without touching any store.
// Non-owner sets are served from the cache when enabled.
func (s *Service) effectiveSet(ctx context.Context, membershipID string) (*EffectiveSet, *Membership, error) {
	m, err := s.membership(ctx, membershipID)
	if err != nil {
		return nil, nil, err
	}

	if m.Role.IsOwner() {
		universe, err := s.registry.Keys(ctx)
		if err != nil {
			return nil, nil, err
		}
		return ResolveEffective(m.Role, nil, nil, universe), m, nil
	}

	if s.effective != nil {
		if cached, ok := s.effective.Get(m.ID); ok {
			return cached, m, nil
		}
	}

	bundleKeys, err := s.memberBundleKeys(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}
	overrides, err := s.memberOverrides(ctx, m.ID)
	if err != nil {
		return nil, nil, err
	}

	set := ResolveEffective(m.Role, bundleKeys, overrides, nil)
	if s.effective != nil {
		s.effective.Add(m.ID, set)
	}
	return set, m, nil
}

// delegationScope returns the scope row for (membership, key), or nil when no
// row exists. Absence means "cannot delegate".
func (s *Service) delegationScope(ctx context.Context, membershipID, key string) (*DelegationScope, error) {
	var scope DelegationScope
	err := dbkit.WithErr1(s.db.NewSelect().Model(&scope).
		Where("grantor_member_id = ? AND permission_key = ?", membershipID, key).
		Limit(1).
		Scan(ctx), "GetDelegationScope").Err()
	if err != nil {
		if dbkit.IsNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &scope, nil
}

// requireActor returns the acting user id from context, required for audit
// attribution on every mutation.
func requireActor(ctx context.Context) (string, error) {
	actorID := GetActorID(ctx)
	if actorID == "" {
		return "", NewError(ErrNoActorID, "actor ID required for permission changes")
	}
	return actorID, nil
}

// auditEntry builds an audit row for a change against a target membership.
// The tenant comes from the target membership, not the actor's active tenant.
func auditEntry(ctx context.Context, target *Membership, key string, action AuditAction) *AuditLogEntry {
	ac := GetAuditContext(ctx)
	return &AuditLogEntry{
		ID:             uuid.NewString(),
		TenantID:       target.TenantID,
		ActorUserID:    ac.ActorID,
		TargetMemberID: target.ID,
		PermissionKey:  key,
		Action:         string(action),
		IPAddress:      ac.IPAddress,
		UserAgent:      ac.UserAgent,
		RequestID:      ac.RequestID,
	}
}

// logAudit appends an audit entry. Callers treat it as best-effort: a failed
// audit write must not roll back the permission change that caused it.
func (s *Service) logAudit(ctx context.Context, entry *AuditLogEntry) error {
	_, err := s.db.NewInsert().Model(entry).Exec(ctx)
	err = dbkit.WithErr1(err, "LogAudit").Err()
	if err != nil {
		s.log.WithError(err).WithFields(map[string]interface{}{
			"tenant_id":        entry.TenantID,
			"target_member_id": entry.TargetMemberID,
			"permission_key":   entry.PermissionKey,
			"action":           entry.Action,
		}).Warn("permkit: audit write failed")
	}
	return err
}

// invalidateMember drops one membership's cached effective set.
func (s *Service) invalidateMember(membershipID string) {
	if s.effective != nil {
		s.effective.Remove(membershipID)
	}
}

// invalidateAllMembers purges the effective-set cache. Used after
// bundle-level mutations that can affect any number of members.
func (s *Service) invalidateAllMembers() {
	if s.effective != nil {
		s.effective.Purge()
	}
}

// inTx runs fn against a transactional handle. Nested calls reuse the
// ambient transaction through a savepoint; a bare IDB falls through without
// transactional guarantees (only reachable with non-dbkit test doubles).
func (s *Service) inTx(ctx context.Context, fn func(idb dbkit.IDB) error) error {
	switch db := s.db.(type) {
	case *dbkit.DBKit:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	case *dbkit.Tx:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	default:
		return fn(s.db)
	}
}

// validateKeys checks every key against format rules and the definition
// universe before any write persists. Returns the first offending key.
func (s *Service) validateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := ValidateKey(key); err != nil {
			return err
		}
		if !s.registry.Has(ctx, key) {
			return NewError(ErrInvalidReference, "permission key not in definition registry").WithKey(key)
		}
	}
	return nil
}
