package permkit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// BUNDLE OPERATIONS
// ============================================================================

// CreateBundle creates a tenant-scoped permission bundle with an initial set
// of keys. Every key is validated against the definition registry before
// anything persists: the bundle row and its key rows are written as one
// atomic unit, so an invalid key leaves nothing behind.
//
// Example:
//
//	bundle, err := service.CreateBundle(ctx, tenantID, "vet-basic", "basic vet access",
//	    []string{"vet.treatment.read", "vet.treatment.create"})
func (s *Service) CreateBundle(ctx context.Context, tenantID, name, description string, keys []string) (*PermissionBundle, error) {
	if tenantID == "" {
		return nil, NewError(ErrNotFound, "tenant id required")
	}
	if err := s.validateKeys(ctx, keys); err != nil {
		return nil, err
	}

	bundle := &PermissionBundle{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		CreatedBy:   GetActorID(ctx),
	}

	err := s.inTx(ctx, func(idb dbkit.IDB) error {
		result, err := idb.NewInsert().Model(bundle).Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreateBundle").Err(); err != nil {
			if dbkit.IsDuplicate(err) {
				return NewError(ErrDatabaseError, "bundle name already in use for tenant").
					WithTenant(tenantID)
			}
			return NewError(ErrDatabaseError, "failed to create bundle").WithTenant(tenantID)
		}
		return insertBundleKeys(ctx, idb, bundle.ID, keys)
	})
	if err != nil {
		return nil, err
	}

	return bundle, nil
}

// GetBundle returns one bundle by id.
func (s *Service) GetBundle(ctx context.Context, bundleID string) (*PermissionBundle, error) {
	var bundle PermissionBundle
	err := dbkit.WithErr1(s.db.NewSelect().Model(&bundle).
		Where("id = ?", bundleID).
		Limit(1).
		Scan(ctx), "GetBundle").Err()
	if err != nil {
		if dbkit.IsNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "bundle does not exist").WithBundle(bundleID)
		}
		return nil, err
	}
	return &bundle, nil
}

// ListBundles returns all bundles belonging to a tenant.
func (s *Service) ListBundles(ctx context.Context, tenantID string) ([]PermissionBundle, error) {
	var bundles []PermissionBundle
	err := dbkit.WithErr1(s.db.NewSelect().Model(&bundles).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Scan(ctx), "ListBundles").Err()
	if err != nil {
		return nil, err
	}
	return bundles, nil
}

// UpdateBundle edits a bundle's name and description. The key set is managed
// separately through ReplaceBundlePermissions.
func (s *Service) UpdateBundle(ctx context.Context, bundleID, name, description string) error {
	result, err := s.db.NewUpdate().Table("permission_bundles").
		Set("name = ?", name).
		Set("description = ?", description).
		Set("updated_at = current_timestamp").
		Where("id = ?", bundleID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpdateBundle").Err(); err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrNotFound, "bundle does not exist").WithBundle(bundleID)
	}
	return nil
}

// DeleteBundle removes a bundle together with its key rows and assignments
// in one atomic unit. System bundles are refused.
func (s *Service) DeleteBundle(ctx context.Context, bundleID string) error {
	bundle, err := s.GetBundle(ctx, bundleID)
	if err != nil {
		return err
	}
	if bundle.IsSystem {
		return NewError(ErrSystemBundle, "refusing to delete system bundle").WithBundle(bundleID)
	}

	err = s.inTx(ctx, func(idb dbkit.IDB) error {
		if _, err := idb.NewDelete().Table("bundle_permissions").
			Where("bundle_id = ?", bundleID).Exec(ctx); err != nil {
			return dbkit.WithErr1(err, "DeleteBundlePermissions").Err()
		}
		if _, err := idb.NewDelete().Table("membership_bundle_assignments").
			Where("bundle_id = ?", bundleID).Exec(ctx); err != nil {
			return dbkit.WithErr1(err, "DeleteBundleAssignments").Err()
		}
		result, err := idb.NewDelete().Table("permission_bundles").
			Where("id = ?", bundleID).Exec(ctx)
		return dbkit.WithErr(result, err, "DeleteBundle").Err()
	})
	if err != nil {
		return err
	}

	s.invalidateAllMembers()
	return nil
}

// ReplaceBundlePermissions swaps a bundle's key set for a new one. It is a
// full replace, delete-all-then-insert in one transaction, never an
// incremental diff: repeating a call with the same keys is a no-op, and no
// concurrent resolution ever observes the bundle half-updated.
func (s *Service) ReplaceBundlePermissions(ctx context.Context, bundleID string, keys []string) error {
	if _, err := s.GetBundle(ctx, bundleID); err != nil {
		return err
	}
	if err := s.validateKeys(ctx, keys); err != nil {
		return err
	}

	err := s.inTx(ctx, func(idb dbkit.IDB) error {
		if _, err := idb.NewDelete().Table("bundle_permissions").
			Where("bundle_id = ?", bundleID).Exec(ctx); err != nil {
			return dbkit.WithErr1(err, "ClearBundlePermissions").Err()
		}
		return insertBundleKeys(ctx, idb, bundleID, keys)
	})
	if err != nil {
		return err
	}

	s.invalidateAllMembers()
	return nil
}

// BundleKeys returns the permission keys a bundle supplies, sorted.
func (s *Service) BundleKeys(ctx context.Context, bundleID string) ([]string, error) {
	var keys []string
	err := dbkit.WithErr1(s.db.NewRaw(
		"SELECT permission_key FROM bundle_permissions WHERE bundle_id = ? ORDER BY permission_key",
		bundleID).Scan(ctx, &keys), "BundleKeys").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return keys, nil
}

// CountBundles returns the number of bundles a tenant has defined.
func (s *Service) CountBundles(ctx context.Context, tenantID string) (int, error) {
	return dbkit.Count[PermissionBundle](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tenant_id = ?", tenantID)
	})
}

func insertBundleKeys(ctx context.Context, idb dbkit.IDB, bundleID string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	rows := make([]*BundlePermission, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, &BundlePermission{
			ID:            uuid.NewString(),
			BundleID:      bundleID,
			PermissionKey: key,
		})
	}
	_, err := dbkit.BatchInsert(ctx, idb, rows, dbkit.BatchSize)
	if err := dbkit.WithErr1(err, "InsertBundleKeys").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to write bundle permissions").WithBundle(bundleID)
	}
	return nil
}
