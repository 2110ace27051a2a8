package permkit

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// BUNDLE ASSIGNMENT OPERATIONS
// ============================================================================

// AssignBundle gives a membership a bundle. Assignment is idempotent:
// assigning an already-assigned bundle succeeds silently, resolved by the
// unique (membership_id, bundle_id) index rather than a read-then-write.
// Bundle (un)assignment is not audited; only override grants/revokes and
// delegation scoping are.
func (s *Service) AssignBundle(ctx context.Context, membershipID, bundleID string) error {
	if _, err := s.membership(ctx, membershipID); err != nil {
		return err
	}
	if _, err := s.GetBundle(ctx, bundleID); err != nil {
		return err
	}

	assignment := &BundleAssignment{
		ID:           uuid.NewString(),
		MembershipID: membershipID,
		BundleID:     bundleID,
		AssignedBy:   GetActorID(ctx),
	}

	result, err := s.db.NewInsert().Model(assignment).
		On("CONFLICT (membership_id, bundle_id) DO NOTHING").
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "AssignBundle").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to assign bundle").
			WithMembership(membershipID).
			WithBundle(bundleID)
	}

	s.invalidateMember(membershipID)
	return nil
}

// RemoveBundle takes a bundle away from a membership. Removing an assignment
// that does not exist succeeds silently.
func (s *Service) RemoveBundle(ctx context.Context, membershipID, bundleID string) error {
	result, err := s.db.NewDelete().Table("membership_bundle_assignments").
		Where("membership_id = ? AND bundle_id = ?", membershipID, bundleID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "RemoveBundle").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to remove bundle assignment").
			WithMembership(membershipID).
			WithBundle(bundleID)
	}

	s.invalidateMember(membershipID)
	return nil
}

// ListMemberBundles returns the bundles currently assigned to a membership.
func (s *Service) ListMemberBundles(ctx context.Context, membershipID string) ([]PermissionBundle, error) {
	var bundles []PermissionBundle
	err := dbkit.WithErr1(s.db.NewSelect().Model(&bundles).
		Join("JOIN membership_bundle_assignments AS mba ON mba.bundle_id = pb.id").
		Where("mba.membership_id = ?", membershipID).
		Order("pb.name ASC").
		Scan(ctx), "ListMemberBundles").Err()
	if err != nil {
		return nil, err
	}
	return bundles, nil
}

// ListBundleMembers returns the assignment rows for one bundle, i.e. every
// membership currently holding it.
func (s *Service) ListBundleMembers(ctx context.Context, bundleID string) ([]BundleAssignment, error) {
	var assignments []BundleAssignment
	err := dbkit.WithErr1(s.db.NewSelect().Model(&assignments).
		Where("bundle_id = ?", bundleID).
		Order("assigned_at ASC").
		Scan(ctx), "ListBundleMembers").Err()
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// IsAssigned reports whether a membership currently holds a bundle.
func (s *Service) IsAssigned(ctx context.Context, membershipID, bundleID string) bool {
	exists, err := dbkit.Exists[BundleAssignment](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("membership_id = ? AND bundle_id = ?", membershipID, bundleID)
	})
	if err != nil {
		return false
	}
	return exists
}
